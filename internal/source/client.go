package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	defaultRetries     = 2
	defaultBackoff     = 500 * time.Millisecond
	maxBodySize        = 8 << 20
)

// DefaultUserAgents is the pool rotated through when no user agent is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Page is a fetched document.
type Page struct {
	URL      string
	Status   int
	Location string
	Body     []byte
}

// Client is the HTTP helper shared by scraping adapters. It rotates user
// agents, rate limits per source, retries transient failures and maps HTTP
// outcomes to QueryError kinds.
type Client struct {
	source     string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgents []string
	uaNext     atomic.Uint32
	cookies    map[string]string
	headers    map[string]string
	retries    int
	backoff    time.Duration
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRatePerMinute limits outgoing requests. Zero disables limiting.
func WithRatePerMinute(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithUserAgent pins a single user agent instead of the rotating pool.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgents = []string{ua}
		}
	}
}

// WithClientCookies attaches cookies to every request.
func WithClientCookies(cookies map[string]string) ClientOption {
	return func(c *Client) {
		c.cookies = cookies
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRetries sets how many times transient failures are retried and the
// initial backoff, which doubles per attempt.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// WithoutRedirects makes the client return 3xx responses instead of following them.
func WithoutRedirects() ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		c.httpClient = &hc
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client for the named source.
func NewClient(source string, opts ...ClientOption) *Client {
	c := &Client{
		source:     source,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgents: DefaultUserAgents,
		headers:    map[string]string{},
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "http", "source", source)
	return c
}

// Cookies returns the cookies attached to every request.
func (c *Client) Cookies() map[string]string { return c.cookies }

// Get fetches rawURL. Non-success outcomes are returned as *QueryError.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, &QueryError{Kind: KindNetwork, Source: c.source, Err: ctx.Err()}
			case <-time.After(wait):
			}
			c.log.Debug("retrying request", "url", rawURL, "attempt", attempt)
		}

		page, retry, err := c.do(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, rawURL string) (*Page, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, &QueryError{Kind: KindNetwork, Source: c.source, Detail: "rate limiter", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, &QueryError{Kind: KindNetwork, Source: c.source, Detail: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Language", "ja,en-US;q=0.8,en;q=0.6")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	WithCookies(req, c.cookies)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &QueryError{Kind: KindNetwork, Source: c.source, Detail: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, true, &QueryError{Kind: KindNetwork, Source: c.source, Detail: "read body", Err: err}
	}

	page := &Page{
		URL:      resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     body,
	}

	if qe := c.classify(page); qe != nil {
		return nil, qe.Kind == KindNetwork && page.Status >= 500, qe
	}
	return page, false, nil
}

// classify maps a response to a QueryError, or nil when the page is usable.
func (c *Client) classify(p *Page) *QueryError {
	status := p.Status
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return NewError(KindNotFound, c.source, fmt.Sprintf("HTTP %d", status))
	case status == http.StatusTooManyRequests:
		return NewError(KindRateLimited, c.source, "HTTP 429")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if DetectChallenge(p.Body) {
			return NewError(KindProtectionChallenge, c.source, fmt.Sprintf("HTTP %d challenge page", status))
		}
		return NewError(KindAuthRequired, c.source, fmt.Sprintf("HTTP %d", status))
	case status == http.StatusServiceUnavailable && DetectChallenge(p.Body):
		return NewError(KindProtectionChallenge, c.source, "HTTP 503 challenge page")
	case status >= 500:
		return NewError(KindNetwork, c.source, fmt.Sprintf("HTTP %d", status))
	case status >= 300 && status < 400:
		if isAgeGate(p) {
			return NewError(KindProtectionChallenge, c.source, "age verification redirect")
		}
		if len(p.Body) == 0 {
			return NewError(KindNetwork, c.source, fmt.Sprintf("HTTP %d location=%s", status, p.Location))
		}
		return nil
	case status >= 400:
		return NewError(KindNetwork, c.source, fmt.Sprintf("HTTP %d", status))
	}

	if isAgeGate(p) || DetectChallenge(p.Body) {
		return NewError(KindProtectionChallenge, c.source, "challenge page")
	}
	if len(p.Body) == 0 {
		return NewError(KindNetwork, c.source, "empty response body")
	}
	return nil
}

func (c *Client) userAgent() string {
	n := c.uaNext.Add(1)
	return c.userAgents[int(n-1)%len(c.userAgents)]
}

var challengeMarkers = [][]byte{
	[]byte("cf-browser-verification"),
	[]byte("cf_chl_opt"),
	[]byte("challenge-platform"),
	[]byte("<title>just a moment...</title>"),
	[]byte("attention required! | cloudflare"),
	[]byte("ddos-guard"),
	[]byte("checking your browser before accessing"),
}

// DetectChallenge reports whether body looks like an anti-automation
// interstitial rather than content.
func DetectChallenge(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	head := body
	if len(head) > 64<<10 {
		head = head[:64<<10]
	}
	lower := bytes.ToLower(head)
	for _, m := range challengeMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}

// isAgeGate recognises a redirect or final page on an age verification wall.
// A redirect whose body is still the full detail page is not a gate.
func isAgeGate(p *Page) bool {
	if strings.Contains(p.URL, "/doc/driver-verify") {
		return true
	}
	if strings.Contains(p.Location, "driver-verify") {
		return bytes.Contains(p.Body, []byte(`id="ageVerify"`)) || len(bytes.TrimSpace(p.Body)) == 0
	}
	return false
}
