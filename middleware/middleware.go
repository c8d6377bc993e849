// Package middleware decorates the outbound HTTP transport of the API client.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource returns the bearer token to attach, or "" when there is none.
type TokenSource func(ctx context.Context) (string, error)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func orDefault(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		return http.DefaultTransport
	}
	return next
}

// Bearer attaches "Authorization: Bearer <token>" whenever the source has a token.
// Requests that already carry an Authorization header are left alone.
func Bearer(source TokenSource, next http.RoundTripper) http.RoundTripper {
	next = orDefault(next)
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if source == nil || r.Header.Get("Authorization") != "" {
			return next.RoundTrip(r)
		}
		token, err := source(r.Context())
		if err != nil {
			return nil, err
		}
		if token == "" {
			return next.RoundTrip(r)
		}
		r = r.Clone(r.Context())
		r.Header.Set("Authorization", "Bearer "+token)
		return next.RoundTrip(r)
	})
}

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

func RequestID(next http.RoundTripper) http.RoundTripper {
	next = orDefault(next)
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(r)
		}
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, uuid.NewString())
		return next.RoundTrip(r)
	})
}

// Logging logs each request method, path, status, and duration at debug level.
func Logging(logger *zap.Logger, next http.RoundTripper) http.RoundTripper {
	next = orDefault(next)
	if logger == nil {
		return next
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(RequestIDHeader)),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Debug("request failed", append(fields, zap.Error(err))...)
			return nil, err
		}
		logger.Debug("request", append(fields, zap.Int("status", resp.StatusCode))...)
		return resp, nil
	})
}

// Chain builds base wrapped by Bearer, Logging and RequestID, outermost last.
func Chain(base http.RoundTripper, source TokenSource, logger *zap.Logger) http.RoundTripper {
	return RequestID(Logging(logger, Bearer(source, base)))
}
