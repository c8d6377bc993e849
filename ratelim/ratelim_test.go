package ratelim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTransportPassesThroughWhenUnlimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewRateLimiter(0, 0).Transport(nil)}
	for i := 0; i < 20; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
}

func TestTransportHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// One request per minute: the burst token goes to the first call.
	client := &http.Client{Transport: NewRateLimiter(1.0/60, 1).Transport(nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected the second request to be throttled")
	}
}

func TestLimiterPerHost(t *testing.T) {
	rl := NewRateLimiter(5, 2)
	a := rl.getLimiter("a:80")
	if a != rl.getLimiter("a:80") {
		t.Fatal("expected the same limiter for the same host")
	}
	if a == rl.getLimiter("b:80") {
		t.Fatal("expected distinct limiters per host")
	}
}
