package registry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cmccoy02/bridge-engine/infrastructure/registry"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("should extract deprecation, peers, and description", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/react-dom", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"description": "React package for working with the DOM",
				"dist-tags": {"latest": "18.2.0"},
				"versions": {
					"18.2.0": {
						"peerDependencies": {"react": "^18.2.0"}
					}
				}
			}`))
		}))
		defer server.Close()

		client := registry.NewClient(registry.WithBaseURL(server.URL))

		// when
		meta := client.Fetch(context.Background(), "react-dom")

		// then
		assert.False(t, meta.Deprecated)
		assert.Equal(t, []string{"react"}, meta.PeerDependencies)
		assert.Equal(t, "React package for working with the DOM", meta.Description)
	})

	t.Run("should flag a deprecated latest version", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"dist-tags": {"latest": "2.88.2"},
				"versions": {
					"2.88.2": {"deprecated": "request has been deprecated"}
				}
			}`))
		}))
		defer server.Close()

		client := registry.NewClient(registry.WithBaseURL(server.URL))

		// when
		meta := client.Fetch(context.Background(), "request")

		// then
		assert.True(t, meta.Deprecated)
	})

	t.Run("should degrade to empty metadata on server errors", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := registry.NewClient(registry.WithBaseURL(server.URL))

		// when
		meta := client.Fetch(context.Background(), "no-such-package")

		// then
		assert.False(t, meta.Deprecated)
		assert.Empty(t, meta.PeerDependencies)
	})

	t.Run("should degrade to empty metadata when the registry is unreachable", func(t *testing.T) {
		t.Parallel()

		// given: a closed server
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client := registry.NewClient(
			registry.WithBaseURL(server.URL),
			registry.WithTimeout(200*time.Millisecond),
		)

		// when
		meta := client.Fetch(context.Background(), "anything")

		// then
		assert.Equal(t, meta, client.Fetch(context.Background(), "anything"))
		assert.False(t, meta.Deprecated)
	})

	t.Run("should degrade to empty metadata on malformed JSON", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer server.Close()

		client := registry.NewClient(registry.WithBaseURL(server.URL))

		// when
		meta := client.Fetch(context.Background(), "broken")

		// then
		assert.False(t, meta.Deprecated)
		assert.Empty(t, meta.Description)
	})
}

func TestClientFetchAll(t *testing.T) {
	t.Parallel()

	t.Run("should fetch every package and bound concurrency by the batch size", func(t *testing.T) {
		t.Parallel()

		// given
		var inFlight, peak atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte(`{"dist-tags": {"latest": "1.0.0"}, "versions": {"1.0.0": {}}}`))
		}))
		defer server.Close()

		client := registry.NewClient(
			registry.WithBaseURL(server.URL),
			registry.WithBatchSize(2),
		)
		names := []string{"a", "b", "c", "d", "e"}

		// when
		results := client.FetchAll(context.Background(), names)

		// then
		assert.Len(t, results, len(names))
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})
}
