package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(ua string) *http.Client {
	// Plain transport keeps the unit tests off the cloudflare wrapper.
	return NewClient(ClientOptions{
		Timeout:   5 * time.Second,
		UserAgent: ua,
		Transport: http.DefaultTransport,
	})
}

func TestRoundTripperSetsUserAgent(t *testing.T) {
	var gotUA atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	c := testClient("mangaua-test/1.0")

	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if ua, _ := gotUA.Load().(string); ua != "mangaua-test/1.0" {
		t.Errorf("User-Agent = %q, want %q", ua, "mangaua-test/1.0")
	}
}

func TestDoWithRetryRecoversFrom5xx(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	resp, err := DoWithRetry(testClient(""), req, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("DoWithRetry() error = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestDoWithRetryRecoversFrom429(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	resp, err := DoWithRetry(testClient(""), req, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("DoWithRetry() error = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestDoWithRetryFailsFastOn404(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	if _, err := DoWithRetry(testClient(""), req, 3, time.Millisecond); err == nil {
		t.Fatal("expected error on 404")
	}

	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, got %d attempts", calls.Load())
	}
}

func TestDoWithRetryExhausted(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	if _, err := DoWithRetry(testClient(""), req, 3, time.Millisecond); err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Ping(context.Background(), testClient(""), srv.URL); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	if err := Ping(context.Background(), testClient(""), "http://127.0.0.1:1"); err == nil {
		t.Error("Ping() should fail for unreachable host")
	}
}
