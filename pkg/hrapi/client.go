// Package hrapi is a small client for the HR SaaS REST API: token
// authentication, paginated reads and fixed-size request batches.
package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 1000
	DefaultTimeout  = 30 * time.Second

	SubdomainHeader = "X-Subdomain"
)

// RequestObserver is notified after every HTTP round trip. status is 0 when
// the request never got a response.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int)
}

type Options struct {
	BaseURL         string
	Subdomain       string
	Username        string
	Password        string
	PageSize        int
	MaxPages        int
	Timeout         time.Duration
	RequestIDHeader string
	HTTPClient      *http.Client
	Observer        RequestObserver
	// RateLimit caps requests per second across the client. Zero disables
	// throttling.
	RateLimit int
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hr api: %s %s status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Client struct {
	baseURL         *url.URL
	subdomain       string
	username        string
	password        string
	pageSize        int
	maxPages        int
	requestIDHeader string
	httpClient      *http.Client
	observer        RequestObserver
	limiter         *limiter.Limiter
	tracer          trace.Tracer

	tokenMu sync.Mutex
	token   string
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base url: %q", raw)
	}
	if strings.TrimSpace(opts.Subdomain) == "" {
		return nil, errors.New("subdomain is required")
	}
	c := &Client{
		baseURL:         u,
		subdomain:       strings.TrimSpace(opts.Subdomain),
		username:        opts.Username,
		password:        opts.Password,
		pageSize:        opts.PageSize,
		maxPages:        opts.MaxPages,
		requestIDHeader: opts.RequestIDHeader,
		httpClient:      opts.HTTPClient,
		observer:        opts.Observer,
		limiter:         newLimiter(opts.RateLimit),
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer("leavesync/hrapi")
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.maxPages <= 0 {
		c.maxPages = DefaultMaxPages
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SubdomainHeader, c.subdomain)
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}

	endpoint := endpointLabel(req.URL.Path)
	ctx, span := c.tracer.Start(ctx, "hrapi "+req.Method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", endpoint),
		),
	)
	defer span.End()
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		c.observe(endpoint, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(endpoint, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

func (c *Client) observe(endpoint string, status int) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status)
	}
}

// getRaw performs an authenticated GET and returns the raw body.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(ctx, req)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

func endpointLabel(path string) string {
	return numericSegment.ReplaceAllString(path, "/:id$1")
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
