package dash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"orfondl/internal/logger"
)

// Options configures the HTTP behaviour of a Client.
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	// RateLimit is the number of requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// Client is responsible for all communication with the broadcaster's servers.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
	limiter    *rate.Limiter

	// RequestTimeout bounds every single request, body included.
	RequestTimeout time.Duration
}

// NewClient creates a new client.
func NewClient(log logger.Logger, opts Options) *Client {
	transport := &userAgentTransport{
		userAgent: opts.UserAgent,
		base:      http.DefaultTransport,
	}

	c := &Client{
		httpClient:     &http.Client{Transport: transport},
		logger:         log,
		RequestTimeout: opts.RequestTimeout,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Get fetches the whole resource at rawURL and returns its body together with the
// URL it was finally served from after redirects. Non-2xx responses yield a *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, finalURL, &StatusError{URL: finalURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, finalURL, fmt.Errorf("failed to read response body from %s: %w", finalURL, err)
	}
	return data, finalURL, nil
}

// FetchMPD fetches the manifest at manifestURL and parses it.
// It also returns the final manifest URL, which segment URLs are resolved against.
func (c *Client) FetchMPD(ctx context.Context, manifestURL string) (*MPD, string, error) {
	c.logger.Debugf("Fetching MPD from URL: %s", manifestURL)

	data, finalURL, err := c.Get(ctx, manifestURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrManifestFetch, manifestURL, err)
	}
	if finalURL != manifestURL {
		c.logger.Debugf("Redirected to: %s", finalURL)
	}

	mpd, err := ParseMPD(data)
	if err != nil {
		return nil, "", err
	}

	c.logger.Debugf("Successfully fetched and parsed MPD for profile %s from %s", mpd.Profiles, finalURL)
	return mpd, finalURL, nil
}

// BaseURL derives the prefix segment paths are appended to: the manifest URL
// without query and final path element, optionally resolved against the
// Period's BaseURL element.
func BaseURL(manifestURL string, period *Period) (string, error) {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse manifest URL '%s': %w", manifestURL, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		u.Path = u.Path[:i+1]
	} else {
		u.Path = "/"
	}
	u.RawPath = ""

	if period != nil && strings.TrimSpace(period.BaseURL) != "" {
		ref, err := url.Parse(strings.TrimSpace(period.BaseURL))
		if err != nil {
			return "", fmt.Errorf("failed to parse period BaseURL '%s': %w", period.BaseURL, err)
		}
		u = u.ResolveReference(ref)
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
	}

	return u.String(), nil
}

// userAgentTransport injects the configured User-Agent into every request.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
