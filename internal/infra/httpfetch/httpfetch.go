// Package httpfetch implements the blocking HTTP Fetcher (C6) used by
// every metadata provider and the streaming-service OAuth proxy. It
// wraps go-resty/resty/v2, the same client the pack reaches for
// whenever a component needs more than net/http's bare Do loop
// (headers, query params, typed JSON bodies, per-request timeouts).
package httpfetch

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Kind enumerates the failure modes surfaced by Fetcher, per §4.6.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindRequestFailed means the request could not be sent or the
	// transport returned an error (DNS, connect, timeout).
	KindRequestFailed
	// KindParseFailed means the response body could not be decoded
	// into the requested shape.
	KindParseFailed
	// KindServerError means the server responded with a 4xx/5xx.
	KindServerError
	// KindEmptyResponse means the server responded 2xx with an empty
	// body where content was expected.
	KindEmptyResponse
)

// Error wraps a Kind with the underlying cause and, for KindServerError,
// the HTTP status code.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRequestFailed:
		return fmt.Sprintf("httpfetch: request failed: %v", e.Err)
	case KindParseFailed:
		return fmt.Sprintf("httpfetch: parse failed: %v", e.Err)
	case KindServerError:
		return fmt.Sprintf("httpfetch: server error %d", e.StatusCode)
	case KindEmptyResponse:
		return "httpfetch: empty response"
	default:
		return "httpfetch: unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher is a blocking, synchronous HTTP client with a configurable
// per-call timeout.
type Fetcher struct {
	client *resty.Client
}

// New builds a Fetcher with the given per-request timeout and
// User-Agent header.
func New(timeout time.Duration, userAgent string) *Fetcher {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Fetcher{client: c}
}

// PostJSON POSTs body as JSON to url and decodes the JSON response
// into a map.
func (f *Fetcher) PostJSON(url string, body any) (map[string]any, error) {
	var out map[string]any
	resp, err := f.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post(url)
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Err: err}
	}
	if resp.IsError() {
		return nil, &Error{Kind: KindServerError, StatusCode: resp.StatusCode()}
	}
	if len(resp.Body()) == 0 {
		return nil, &Error{Kind: KindEmptyResponse}
	}
	if out == nil {
		return nil, &Error{Kind: KindParseFailed, Err: errors.New("response was not a JSON object")}
	}
	return out, nil
}

// GetText fetches url and returns the response body as text.
func (f *Fetcher) GetText(url string) (string, error) {
	resp, err := f.client.R().Get(url)
	if err != nil {
		return "", &Error{Kind: KindRequestFailed, Err: err}
	}
	if resp.IsError() {
		return "", &Error{Kind: KindServerError, StatusCode: resp.StatusCode()}
	}
	if len(resp.Body()) == 0 {
		return "", &Error{Kind: KindEmptyResponse}
	}
	return string(resp.Body()), nil
}

// GetBinary fetches url and returns the raw bytes plus the response's
// Content-Type.
func (f *Fetcher) GetBinary(url string) ([]byte, string, error) {
	resp, err := f.client.R().Get(url)
	if err != nil {
		return nil, "", &Error{Kind: KindRequestFailed, Err: err}
	}
	if resp.IsError() {
		return nil, "", &Error{Kind: KindServerError, StatusCode: resp.StatusCode()}
	}
	if len(resp.Body()) == 0 {
		return nil, "", &Error{Kind: KindEmptyResponse}
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// GetJSONWithHeaders fetches url with the given request headers and
// decodes the JSON response into a map.
func (f *Fetcher) GetJSONWithHeaders(url string, headers map[string]string) (map[string]any, error) {
	var out map[string]any
	resp, err := f.client.R().
		SetHeaders(headers).
		SetResult(&out).
		Get(url)
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Err: err}
	}
	if resp.IsError() {
		return nil, &Error{Kind: KindServerError, StatusCode: resp.StatusCode()}
	}
	if len(resp.Body()) == 0 {
		return nil, &Error{Kind: KindEmptyResponse}
	}
	if out == nil {
		return nil, &Error{Kind: KindParseFailed, Err: errors.New("response was not a JSON object")}
	}
	return out, nil
}

// OAuthProxyResponse is the result of a proxied OAuth login request:
// either a redirect the caller must follow itself, or a terminal
// response body.
type OAuthProxyResponse struct {
	StatusCode int
	Location   string
	Body       []byte
}

// OAuthProxyFetch performs a GET with automatic redirect-following
// disabled, surfacing the Location header instead, per §4.6: the
// OAuth login proxy path must not let the client silently follow
// redirects through third-party auth servers.
func (f *Fetcher) OAuthProxyFetch(url string) (*OAuthProxyResponse, error) {
	noRedirect := resty.New().
		SetTimeout(f.client.GetClient().Timeout).
		SetRedirectPolicy(resty.NoRedirectPolicy())

	resp, err := noRedirect.R().Get(url)
	if err != nil {
		// resty surfaces the refused redirect as an error even though
		// the response itself (with its Location header) is exactly
		// what the caller wants.
		if resp == nil || resp.RawResponse == nil {
			return nil, &Error{Kind: KindRequestFailed, Err: err}
		}
	}
	return &OAuthProxyResponse{
		StatusCode: resp.StatusCode(),
		Location:   resp.Header().Get("Location"),
		Body:       resp.Body(),
	}, nil
}
