package steps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "liftoff-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "b", r.URL.Query().Get("a"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, WithHTTPClient(srv.Client()), WithUserAgent("liftoff-test"))

	var got struct {
		Name string `json:"name"`
	}
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, url.Values{"a": {"b"}}, &got))
	assert.Equal(t, "ok", got.Name)
}

func TestFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, WithHTTPClient(srv.Client()))
	err := f.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, FailureTransport, classify(err))
}

func TestFetcher_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, WithHTTPClient(srv.Client()))
	err := f.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	require.Error(t, err)
	assert.Equal(t, FailureMalformedResponse, classify(err))
}

func TestFetcher_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// One token per minute: the second call must wait and hit the deadline.
	f := NewFetcher(time.Second, WithHTTPClient(srv.Client()), WithRateLimit(1.0/60, 1))
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, nil, &struct{}{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := f.GetJSON(ctx, srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond
	f := NewFetcher(time.Second, WithHTTPClient(client))

	err := f.GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	require.Error(t, err)
	assert.Equal(t, FailureTransport, classify(err))
}
