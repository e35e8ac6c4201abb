package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

type ClientOptions struct {
	Timeout     time.Duration
	UserAgent   string
	Transport   http.RoundTripper
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

// NewClient builds the shared HTTP client for catalog and image requests.
// The transport goes through the cloudflare bypass wrapper so the site
// sees browser-like headers.
func NewClient(opts ClientOptions) *http.Client {
	jar, _ := cookiejar.New(nil)

	var base http.RoundTripper
	if opts.Transport != nil {
		base = opts.Transport
	} else {
		base = cloudflarebp.AddCloudFlareByPass(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxConnsPerHost:     100,
			MaxIdleConnsPerHost: 100,
			ForceAttemptHTTP2:   true,
		})
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Jar:     jar,
		Transport: roundTripper{
			base: base,
			ua:   opts.UserAgent,
			log:  opts.DebugLogger,
		},
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("HTTP client initialized (timeout=%s, ua=%q)", opts.Timeout, opts.UserAgent)
	}

	return client
}

type roundTripper struct {
	base http.RoundTripper
	ua   string
	log  interface{ Debugf(string, ...any) }
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.ua != "" {
		req.Header.Set("User-Agent", rt.ua)
	}

	if rt.log != nil {
		rt.log.Debugf("HTTP %s %s", req.Method, req.URL.String())
	}

	return rt.base.RoundTrip(req)
}

// DoWithRetry executes the request with linear backoff. Transport errors,
// 5xx and 429 are retried; other 4xx fail immediately since repeating
// them cannot change the answer.
func DoWithRetry(c *http.Client, req *http.Request, attempts int, backoff time.Duration) (*http.Response, error) {
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	var err error

	for i := 1; i <= attempts; i++ {
		resp, err = c.Do(req)
		if err == nil {
			if resp.StatusCode < 400 {
				return resp, nil
			}
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				status := resp.StatusCode
				_ = resp.Body.Close()
				return nil, fmt.Errorf("HTTP %d for %s", status, req.URL)
			}
			_ = resp.Body.Close()
		}

		if i == attempts {
			break
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}

	if err == nil && resp != nil {
		return nil, fmt.Errorf("HTTP %d after %d attempts for %s", resp.StatusCode, attempts, req.URL)
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
}

// Ping checks that the site root answers before any real work starts.
func Ping(ctx context.Context, c *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", baseURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s answered HTTP %d", baseURL, resp.StatusCode)
	}

	return nil
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
}
