// Package fetch provides the single request/response helper used to talk to the JobPlus
// backend and the IP geolocation service.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobPlusClient/1.0)"

// JSONContentType is sent whenever a request carries a body.
const JSONContentType = "application/json;charset=utf-8"

// Result holds the raw response of a completed request.
type Result struct {
	URL         string
	StatusCode  int
	Body        []byte
	ContentType string
}

// Error represents a failed request: transport failure or a status other than 200.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s %s: %s: %v", e.Method, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s %s: %s", e.Method, e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Jar       http.CookieJar // Keeps the backend session cookie between calls
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// SuccessFunc receives the response of a request answered with HTTP 200.
type SuccessFunc func(res *Result)

// FailureFunc receives the error of a request that did not complete with HTTP 200.
type FailureFunc func(err error)

// Client issues requests. It performs no retries.
type Client struct {
	rc *resty.Client
}

// New creates a client with the given options.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")
	if opts.UserAgent == "" {
		rc.SetHeader("User-Agent", DefaultUserAgent)
	}
	if opts.Timeout == 0 {
		rc.SetTimeout(DefaultTimeout)
	}
	for key, value := range opts.Headers {
		rc.SetHeader(key, value)
	}
	if opts.Jar != nil {
		rc.SetCookieJar(opts.Jar)
	}

	rc.OnError(func(req *resty.Request, err error) {
		log.Printf("[fetch] %s %s: the request couldn't be completed: %v", req.Method, req.URL, err)
	})

	return &Client{rc: rc}
}

// Do sends one request. A nil body sends no payload and no Content-Type;
// anything else is encoded as JSON.
func (c *Client) Do(ctx context.Context, method, urlStr string, body any) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			Method:  method,
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	req := c.rc.R().SetContext(ctx)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{
				Method:  method,
				URL:     urlStr,
				Message: "failed to encode request body",
				Cause:   err,
			}
		}
		req.SetHeader("Content-Type", JSONContentType).SetBody(payload)
	}

	resp, err := req.Execute(method, urlStr)
	if err != nil {
		return nil, &Error{
			Method:  method,
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		StatusCode:  resp.StatusCode(),
		Body:        resp.Body(),
		ContentType: resp.Header().Get("Content-Type"),
	}

	// Only 200 counts as success; callers interpret the payload
	if resp.StatusCode() != http.StatusOK {
		return result, &Error{
			Method:     method,
			URL:        urlStr,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode()),
		}
	}

	return result, nil
}

// Call sends one request and invokes exactly one of the callbacks.
// Either callback may be nil.
func (c *Client) Call(ctx context.Context, method, urlStr string, body any, onSuccess SuccessFunc, onFailure FailureFunc) {
	res, err := c.Do(ctx, method, urlStr, body)
	if err != nil {
		if onFailure != nil {
			onFailure(err)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(res)
	}
}

// StatusCode extracts the HTTP status from a fetch error anywhere in err's chain,
// or 0 for transport failures and other errors.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
