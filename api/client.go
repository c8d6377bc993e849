// Package api is the thin REST layer in front of the marketplace server.
//
// Every call is a single JSON request/response except profile updates, which are
// multipart. Non-2xx responses and network errors come back as *apperr.Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"kiosk/apperr"
	"kiosk/globals"

	"go.uber.org/zap"
)

// Client talks to one marketplace API base URL.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// New builds a client for baseURL + prefix. An empty prefix means globals.APIPrefix.
func New(baseURL, prefix string, opts ...Option) *Client {
	if prefix == "" {
		prefix = globals.APIPrefix
	}
	c := &Client{
		base:   strings.TrimRight(baseURL, "/") + "/" + strings.Trim(prefix, "/"),
		http:   http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL is the prefixed root every path is joined to.
func (c *Client) BaseURL() string { return c.base }

// URL joins path (and an optional query) onto the base.
func (c *Client) URL(path string, query url.Values) string {
	u := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, c.URL(path, query), nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, c.URL(path, nil), in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, c.URL(path, nil), in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, c.URL(path, nil), nil, out)
}

// File is one binary attachment of a multipart submission.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Multipart submits fields and files as one multipart/form-data request.
func (c *Client) Multipart(ctx context.Context, method, path string, fields map[string]string, files []File, out any) error {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return apperr.Wrap(apperr.ValidationFailure, "Could not prepare the upload.", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, nil), body)
	if err != nil {
		return apperr.Wrap(apperr.TransportFailure, apperr.GenericMessage, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func encodeMultipart(fields map[string]string, files []File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("field %s: %w", k, err)
		}
	}
	for _, f := range files {
		if f.Field == "" {
			return nil, "", errors.New("attachment without a field name")
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("file %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.ValidationFailure, "Could not prepare the request.", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return apperr.Wrap(apperr.TransportFailure, apperr.GenericMessage, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("transport error", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Error(err))
		return apperr.Wrap(apperr.TransportFailure, apperr.GenericMessage, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.TransportFailure, apperr.GenericMessage, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.NotFound, "The server sent an unexpected response.", err)
	}
	return nil
}

// errorBody covers {"error": "..."} and {"message": "..."} error payloads.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(status int, raw []byte) error {
	msg := ""
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		msg = eb.Error
		if msg == "" {
			msg = eb.Message
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 && !strings.ContainsAny(text, "<{") {
		// plain text bodies from http.Error
		msg = text
	}
	if msg == "" {
		msg = apperr.GenericMessage
	}

	kind := apperr.TransportFailure
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = apperr.Unauthenticated
	case http.StatusNotFound:
		kind = apperr.NotFound
	}
	return &apperr.Error{Kind: kind, Message: msg, Status: status}
}
