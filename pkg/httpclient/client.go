// Package httpclient provides the shared GET client used by every provider
// fetcher: bounded exponential backoff on transient statuses, per-host
// pacing, and tolerant body decoding.
package httpclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"

	"github.com/sells-group/cnpj-cli/internal/resilience"
)

// Options configures the client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Retry     resilience.RetryConfig
	// RateLimiters paces requests per host. Hosts without an entry share a
	// permissive default limiter.
	RateLimiters map[string]*rate.Limiter
}

// Request describes a single GET call.
type Request struct {
	URL     string
	Headers map[string]string
	Params  url.Values
	// Timeout overrides the client default for this call only.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS verification for this call. The
	// warning is logged once per process, not per request.
	InsecureSkipVerify bool
}

// Response is the outcome of a completed (non-retried-away) GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSONPayload returns the body as raw JSON when it parses, or (nil, false)
// when it does not. Callers degrade to the raw text rather than failing.
func (r *Response) JSONPayload() (json.RawMessage, bool) {
	trimmed := []byte(strings.TrimSpace(string(r.Body)))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

var insecureWarnOnce sync.Once

// Client issues GET requests with retry/backoff and per-host rate limiting.
// Only GETs are exposed: every provider endpoint is idempotent, and nothing
// else is safe to retry.
type Client struct {
	std            *http.Client
	insecure       *http.Client
	opts           Options
	defaultLimiter *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "cnpj-cli/1.0"
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &Client{
		std:            &http.Client{Timeout: opts.Timeout, Transport: transport},
		insecure:       &http.Client{Timeout: opts.Timeout, Transport: insecureTransport},
		opts:           opts,
		defaultLimiter: rate.NewLimiter(20, 20),
	}
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.defaultLimiter
	}
	if lim, ok := c.opts.RateLimiters[u.Host]; ok {
		return lim
	}
	return c.defaultLimiter
}

// Get performs the request with retries on 429/500/502/503/504 and on
// connection-level transient errors. On retry exhaustion the last transient
// error is returned; a completed response with any other status is returned
// to the caller for interpretation.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	reqURL := req.URL
	if len(req.Params) > 0 {
		// Encode sorts keys, which keeps cache keys stable.
		reqURL += "?" + req.Params.Encode()
	}

	client := c.std
	if req.InsecureSkipVerify {
		insecureWarnOnce.Do(func() {
			zap.L().Warn("TLS verification disabled for provider calls")
		})
		client = c.insecure
	}

	cfg := c.opts.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(hostOf(reqURL), "get")
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Response, error) {
		if err := c.limiterFor(reqURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "httpclient: rate limiter wait")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "httpclient: build request")
		}
		httpReq.Header.Set("User-Agent", c.opts.UserAgent)
		httpReq.Header.Set("Accept", "application/json")
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			// net errors carry their own transience; IsTransient sorts them.
			return nil, eris.Wrap(err, "httpclient: request")
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resilience.NewTransientError(eris.Wrap(readErr, "httpclient: read body"), resp.StatusCode)
		}

		if resilience.IsRetryableStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("httpclient: status %d from %s", resp.StatusCode, hostOf(reqURL)),
				resp.StatusCode,
			)
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Body:       decodeCharset(body, resp.Header.Get("Content-Type")),
		}, nil
	})
}

// decodeCharset converts ISO-8859-1 bodies to UTF-8. Legacy government
// endpoints occasionally serve Latin-1 without warning.
func decodeCharset(body []byte, contentType string) []byte {
	ct := strings.ToLower(contentType)
	if !strings.Contains(ct, "iso-8859-1") && !strings.Contains(ct, "latin1") {
		return body
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
