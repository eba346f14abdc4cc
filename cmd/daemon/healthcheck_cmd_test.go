package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbe(t *testing.T) {
	var ready atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/readyz":
			if ready.Load() {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	assert.Equal(t, 0, probe(srv.URL, "live", time.Second))
	assert.Equal(t, 1, probe(srv.URL, "ready", time.Second))
	ready.Store(true)
	assert.Equal(t, 0, probe(srv.URL, "ready", time.Second))
}

func TestHealthcheckCLIRejectsBadFlags(t *testing.T) {
	assert.Equal(t, 1, runHealthcheckCLI([]string{"--nope"}))
}
