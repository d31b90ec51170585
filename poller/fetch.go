package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"agentwatch/snapshot"
)

// ErrorKind distinguishes fetch failures for logging and counters. The
// connection state machine treats every kind the same way.
type ErrorKind uint8

const (
	KindTransport ErrorKind = iota
	KindAuth
	KindHTTP
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is a poll failure tagged with its kind and, for HTTP-level
// failures, the response status code.
type FetchError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type conditionalFetcher struct {
	url          string
	authHeader   string
	etag         string
	lastModified string
	client       *http.Client
}

// Fetch performs one authenticated conditional GET. It returns (body, true,
// nil) when the agent sent a fresh payload and (nil, false, nil) on a 304.
func (f *conditionalFetcher) Fetch(ctx context.Context) ([]byte, bool, error) {
	if f == nil {
		return nil, false, &FetchError{Kind: KindTransport, Err: fmt.Errorf("nil fetcher")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, false, &FetchError{Kind: KindTransport, Err: err}
	}
	if f.authHeader != "" {
		req.Header.Set("Authorization", f.authHeader)
	}
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	if f.lastModified != "" {
		req.Header.Set("If-Modified-Since", f.lastModified)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, &FetchError{Kind: KindAuth, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, false, &FetchError{Kind: KindHTTP, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &FetchError{Kind: KindTransport, Err: err}
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		f.etag = etag
	}
	if last := resp.Header.Get("Last-Modified"); last != "" {
		f.lastModified = last
	}
	return body, true, nil
}

// basicAuthHeader builds the Authorization header value once so credentials
// are not re-encoded on every poll. Empty credentials produce no header.
func basicAuthHeader(username, password string) string {
	if username == "" && password == "" {
		return ""
	}
	req, err := http.NewRequest(http.MethodGet, "http://placeholder/", nil)
	if err != nil {
		return ""
	}
	req.SetBasicAuth(username, password)
	return req.Header.Get("Authorization")
}

// FetchOnce performs a single authenticated fetch and decode outside of a
// running Manager. Used by the one-shot report command.
func FetchOnce(ctx context.Context, cfg Config) (*snapshot.StatsSnapshot, error) {
	cfg.normalize()
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RequestTimeoutMS)*time.Millisecond)
	defer cancel()
	f := &conditionalFetcher{
		url:        cfg.URL,
		authHeader: basicAuthHeader(cfg.Username, cfg.Password),
		client:     &http.Client{Timeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond},
	}
	body, updated, err := f.Fetch(reqCtx)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, &FetchError{Kind: KindHTTP, Status: http.StatusNotModified}
	}
	snap, err := snapshot.Decode(body)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, Err: err}
	}
	return snap, nil
}
