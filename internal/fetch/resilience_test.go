package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func getRequest(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	resp, err := Do(context.Background(), cfg, NewBreaker("test"), getRequest(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	resp, err := Do(context.Background(), cfg, NewBreaker("test"), getRequest(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	_, err := Do(context.Background(), cfg, NewBreaker("test"), getRequest(srv.URL))
	require.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + 2 retries
}

func TestDoRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	_, err := Do(context.Background(), cfg, NewBreaker("test"), getRequest(srv.URL))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestDoUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	_, err := Do(context.Background(), cfg, NewBreaker("test"), getRequest(srv.URL))
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestDoCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := ClientConfig{Client: srv.Client(), Backoff: fastBackoff()}
	_, err := Do(ctx, cfg, NewBreaker("test"), getRequest(srv.URL))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoMissingClient(t *testing.T) {
	_, err := Do(context.Background(), ClientConfig{Backoff: fastBackoff()}, NewBreaker("test"), getRequest("http://localhost"))
	assert.Error(t, err)
}
