// Package api implements the remote-resource client for Case Conductor
// style Test Case Management platforms: typed resources mapped from the
// platform's namespaced JSON, list fetching with pagination, sorting and
// filtering, optimistic-concurrency version tokens on writes, and GET
// response caching.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/conductor/internal/cache"
	"github.com/ternarybob/conductor/internal/common"
	"github.com/ternarybob/conductor/internal/interfaces"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// DefaultCacheTTL is how long GET responses stay cached.
	DefaultCacheTTL = 10 * time.Minute
)

// Client is a Case Conductor platform client. All resource and list
// operations go through it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	userAgent  string
	companyID  string
	creds      *Credentials

	cacheStore interfaces.CacheStore
	cacheTTL   time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithUserAgent sets a custom User-Agent header value.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithCredentials sets default credentials used when a request does not
// carry its own.
func WithCredentials(creds *Credentials) ClientOption {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithCompany sets the company ID used by list Ours() scoping.
func WithCompany(companyID string) ClientOption {
	return func(c *Client) {
		c.companyID = companyID
	}
}

// WithCache enables GET response caching through the given store. A zero
// ttl means DefaultCacheTTL.
func WithCache(store interfaces.CacheStore, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheStore = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a platform client for the given base URL
// (e.g. "https://tcm.example.com/rest/").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		userAgent: "conductor/" + common.GetVersion(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cacheStore != nil {
		ttl := c.cacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		// Wrap a copy so a caller-supplied client is left untouched.
		wrapped := *c.httpClient
		wrapped.Transport = cache.NewTransport(base, c.cacheStore, ttl, c.logger)
		c.httpClient = &wrapped
	}

	return c
}

// CompanyID returns the configured company scope, if any.
func (c *Client) CompanyID() string {
	return c.companyID
}

// RequestOption adjusts a single read operation.
type RequestOption func(*requestOptions)

type requestOptions struct {
	auth *Credentials
}

// WithAuth sets the credentials for this request. They persist on the
// fetched resource for subsequent writes.
func WithAuth(creds *Credentials) RequestOption {
	return func(o *requestOptions) {
		o.auth = creds
	}
}

// Uncacheable marks a resource type whose GET responses must bypass the
// response cache.
type Uncacheable interface {
	Uncacheable()
}

// Get fetches the resource at path (relative to the base URL, or absolute)
// and decodes it into out.
func (c *Client) Get(ctx context.Context, path string, out Remote, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	auth := ro.auth
	if auth == nil {
		auth = c.creds
	}

	full, err := c.resolveURL(path)
	if err != nil {
		return err
	}

	_, noCache := out.(Uncacheable)
	body, err := c.do(ctx, requestSpec{
		method:   http.MethodGet,
		url:      full,
		auth:     auth,
		resource: typeNameOf(out),
		noCache:  noCache,
	})
	if err != nil {
		return err
	}

	ident, err := decodeResource(body, out.TypeName(), out)
	if err != nil {
		return err
	}

	r := out.base()
	r.client = c
	r.self = out
	r.auth = auth
	r.identity = ident
	if ident != nil && ident.URL != "" {
		r.location = c.locationURL(ident.URL)
	} else {
		r.location = stripTypeParam(full)
	}
	return nil
}

// GetBool fetches a boolean endpoint, e.g. the email-in-use check. These
// responses are never cached.
func (c *Client) GetBool(ctx context.Context, path string, opts ...RequestOption) (bool, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	auth := ro.auth
	if auth == nil {
		auth = c.creds
	}

	full, err := c.resolveURL(path)
	if err != nil {
		return false, err
	}
	body, err := c.do(ctx, requestSpec{
		method:   http.MethodGet,
		url:      full,
		auth:     auth,
		resource: "boolean",
		noCache:  true,
	})
	if err != nil {
		return false, err
	}
	return decodeBoolean(body)
}

type requestSpec struct {
	method      string
	url         string
	body        []byte
	contentType string
	auth        *Credentials
	resource    string
	noCache     bool
}

// do executes one request and maps the response status to either a body or
// a typed error.
func (c *Client) do(ctx context.Context, spec requestSpec) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if spec.body != nil {
		reader = bytes.NewReader(spec.body)
	}
	req, err := http.NewRequestWithContext(ctx, spec.method, spec.url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	if spec.noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}
	spec.auth.apply(req.Header)

	if c.logger != nil {
		c.logger.Debug().
			Str("request_id", common.NewRequestID()).
			Str("method", spec.method).
			Str("url", spec.url).
			Str("resource", spec.resource).
			Msg("platform request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if ct := resp.Header.Get("Content-Type"); !expectedContentType(ct) {
			return nil, badContentTypeError(ct, spec.resource, spec.url)
		}
		return body, nil
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		// Redirects with a Location are followed by the HTTP client; one
		// arriving here has no usable target.
		return nil, missingLocationError(resp.StatusCode, spec.resource, spec.url)
	default:
		return nil, statusError(resp.StatusCode, spec.resource, spec.url, body)
	}
}

// resolveURL joins path to the base URL (absolute URLs pass through) and
// appends the _type=json marker every platform request carries.
func (c *Client) resolveURL(path string) (string, error) {
	u, err := url.Parse(c.locationURL(path))
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", path, err)
	}
	q := u.Query()
	q.Set("_type", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// locationURL joins path to the base URL without the _type marker; this is
// the canonical location form stored on resources.
func (c *Client) locationURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// stripTypeParam removes the _type marker from a resolved URL.
func stripTypeParam(full string) string {
	u, err := url.Parse(full)
	if err != nil {
		return full
	}
	q := u.Query()
	q.Del("_type")
	u.RawQuery = q.Encode()
	return u.String()
}

func expectedContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "json") || strings.Contains(ct, "xml")
}

// typeNameOf returns the Go type name used in error messages.
func typeNameOf(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
