package zillow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zach-wendland/bna-rentals/pkg/httpclient"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := testLogger()
	client := NewClient(httpclient.NewClient(httpclient.DefaultConfig(), logger), ClientConfig{
		Host:     "zillow56.p.rapidapi.com",
		APIKey:   "test-key",
		Retries:  retries,
		Cooldown: time.Millisecond,
		BaseURL:  server.URL,
	}, logger)
	return client, server
}

func TestFetchPage(t *testing.T) {
	t.Run("success extracts results sequence", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
			assert.Equal(t, "zillow56.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			w.Write([]byte(`{"results":[{"detailUrl":"/a"},{"detailUrl":"/b"}],"totalPages":5}`))
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.NoError(t, err)
		assert.Len(t, page.Results, 2)
		assert.Equal(t, 5, page.TotalPages)
	})

	t.Run("falls back to props sequence", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"props":[{"detailUrl":"/a"}]}`))
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.NoError(t, err)
		assert.Len(t, page.Results, 1)
	})

	t.Run("treats bare array payload as the result set", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"detailUrl":"/a"},{"detailUrl":"/b"},{"detailUrl":"/c"}]`))
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.NoError(t, err)
		assert.Len(t, page.Results, 3)
	})

	t.Run("unknown payload shape yields empty results", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"nothing here"}`))
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Results)
	})

	t.Run("page below 1 is clamped", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			w.Write([]byte(`{"results":[]}`))
		}, 4)

		_, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, -3)
		require.NoError(t, err)
	})

	t.Run("404 maps to empty page without error", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nowhere TN"}, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Equal(t, 1, calls, "404 must not be retried")
	})

	t.Run("401 fails immediately with auth error", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		}, 4)

		_, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.Error(t, err)
		assert.True(t, IsAuth(err))
		assert.Equal(t, 1, calls, "auth failures must not be retried")
	})

	t.Run("429 retries then succeeds", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"results":[{"detailUrl":"/a"}]}`))
		}, 4)

		page, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.NoError(t, err)
		assert.Len(t, page.Results, 1)
		assert.Equal(t, 2, calls)
	})

	t.Run("429 on every attempt yields rate limit error", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		}, 4)

		_, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.Error(t, err)
		assert.True(t, IsRateLimit(err))
		assert.Equal(t, 4, calls)
	})

	t.Run("server errors retry then yield api error with message", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream exploded"}`))
		}, 3)

		_, err := client.FetchPage(context.Background(), SearchParams{Location: "Nashville TN"}, 1)
		require.Error(t, err)
		assert.False(t, IsRateLimit(err))
		assert.False(t, IsAuth(err))

		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, "upstream exploded", apiErr.Message)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, 3, calls)
	})
}
