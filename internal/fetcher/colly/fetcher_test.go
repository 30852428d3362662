package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
)

type countingPauser struct {
	calls atomic.Int32
}

func (p *countingPauser) Pause(context.Context) {
	p.calls.Add(1)
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Привет</p></body></html>"))
	}))
	defer server.Close()

	pauser := &countingPauser{}
	f := New(Config{Timeout: time.Second}, pauser, nil)

	page, err := f.Fetch(context.Background(), server.URL+"/listing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, server.URL+"/listing", page.URL)
	assert.Contains(t, page.HTML(), "Привет")
	assert.Equal(t, DefaultUserAgent, gotUA.Load())
	assert.EqualValues(t, 1, pauser.calls.Load())
}

func TestFetchRevisitsSameURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "test-agent"}, nil, nil)
	for range 2 {
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusCreated} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))

		pauser := &countingPauser{}
		f := New(Config{}, pauser, nil)
		_, err := f.Fetch(context.Background(), server.URL)
		server.Close()

		require.Error(t, err)
		require.ErrorIs(t, err, crawler.ErrBadStatusCode)
		var statusErr *crawler.BadStatusCodeError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, code, statusErr.StatusCode)
		assert.EqualValues(t, 1, pauser.calls.Load(), "pause must follow failed attempts too")
	}
}

func TestFetchTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	pauser := &countingPauser{}
	f := New(Config{Timeout: time.Second}, pauser, nil)
	_, err := f.Fetch(context.Background(), addr)
	require.Error(t, err)
	assert.False(t, errors.Is(err, crawler.ErrBadStatusCode))
	assert.EqualValues(t, 1, pauser.calls.Load())
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Config{}, nil, nil)
	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil, nil)
	var result crawler.Page
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, "https://example.com/a", &result, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com/b"),
		},
	})
	assert.Equal(t, "https://example.com/a", result.URL)
	assert.Equal(t, "https://example.com/b", result.FinalURL)
	assert.Equal(t, "body", result.HTML())

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
