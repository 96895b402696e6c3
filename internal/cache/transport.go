// Package cache provides GET response caching for the platform client.
// Cached responses are stored as raw HTTP wire dumps keyed by request URL.
package cache

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conductor/internal/interfaces"
)

// Transport is an http.RoundTripper that serves GET requests from a
// CacheStore. Only 200 OK responses are cached; other methods and statuses
// pass straight through. A request carrying Cache-Control: no-cache
// bypasses the cache entirely.
type Transport struct {
	next   http.RoundTripper
	store  interfaces.CacheStore
	ttl    time.Duration
	logger arbor.ILogger
}

// NewTransport wraps next with response caching.
func NewTransport(next http.RoundTripper, store interfaces.CacheStore, ttl time.Duration, logger arbor.ILogger) *Transport {
	return &Transport{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || req.Header.Get("Cache-Control") == "no-cache" {
		return t.next.RoundTrip(req)
	}

	key := req.URL.String()
	if dump, ok := t.store.Get(key); ok {
		resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(dump)), req)
		if err == nil {
			if t.logger != nil {
				t.logger.Debug().Str("url", key).Msg("cache hit")
			}
			return resp, nil
		}
		// Unreadable entry: drop it and fall through to the network.
		t.store.Delete(key)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			t.store.Set(key, dump, t.ttl)
		}
	}
	return resp, nil
}
