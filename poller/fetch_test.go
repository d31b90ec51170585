package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testPayload = `{"projects":{"alpha":{"is_running":true,"success_count":3,"failed_count":1,"fail_reasons":[],"last_run":"2026-08-01 10:00:00"}},"history":[]}`

func TestFetchSendsBasicAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(testPayload))
	}))
	defer srv.Close()

	f := &conditionalFetcher{
		url:        srv.URL,
		authHeader: basicAuthHeader("operator", "hunter2"),
		client:     srv.Client(),
	}
	body, updated, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatalf("expected updated")
	}
	if len(body) == 0 {
		t.Fatalf("expected body")
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.SetBasicAuth("operator", "hunter2")
	if want := req.Header.Get("Authorization"); gotAuth != want {
		t.Fatalf("auth header = %q, want %q", gotAuth, want)
	}
}

func TestFetchNotModified(t *testing.T) {
	first := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			first = false
			w.Header().Set("ETag", `"v1"`)
			w.Write([]byte(testPayload))
			return
		}
		if r.Header.Get("If-None-Match") != `"v1"` {
			t.Errorf("missing If-None-Match, got %q", r.Header.Get("If-None-Match"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	f := &conditionalFetcher{url: srv.URL, client: srv.Client()}
	if _, updated, err := f.Fetch(context.Background()); err != nil || !updated {
		t.Fatalf("first fetch: updated=%v err=%v", updated, err)
	}
	body, updated, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if updated || body != nil {
		t.Fatalf("expected 304 to report no update, got updated=%v body=%q", updated, body)
	}
}

func TestFetchErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusInternalServerError, KindHTTP},
		{http.StatusNotFound, KindHTTP},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		f := &conditionalFetcher{url: srv.URL, client: srv.Client()}
		_, _, err := f.Fetch(context.Background())
		srv.Close()
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("status %d: expected FetchError, got %v", tc.status, err)
		}
		if fe.Kind != tc.kind {
			t.Fatalf("status %d: kind = %s, want %s", tc.status, fe.Kind, tc.kind)
		}
		if fe.Status != tc.status {
			t.Fatalf("status %d: recorded status %d", tc.status, fe.Status)
		}
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	f := &conditionalFetcher{url: srv.URL, client: http.DefaultClient}
	_, _, err := f.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != KindTransport {
		t.Fatalf("kind = %s, want transport", fe.Kind)
	}
}

func TestFetchOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPayload))
	}))
	defer srv.Close()

	snap, err := FetchOnce(context.Background(), Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := snap.Projects["alpha"]; !ok {
		t.Fatalf("expected project alpha, got %v", snap.Projects)
	}
}

func TestFetchOnceDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projects":{}}`))
	}))
	defer srv.Close()

	_, err := FetchOnce(context.Background(), Config{URL: srv.URL})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}
