package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zach-wendland/bna-rentals/pkg/httpclient"
)

func TestDailyFetch(t *testing.T) {
	t.Run("relays the sync endpoint's response", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/sync", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"message":"sync completed","collected":12,"persisted":10,"ingestionDate":"2026-08-30"}`))
		}))
		defer backend.Close()

		handler := NewCronHandler(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), backend.URL, "s3cret", testLogger())

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/cron/daily-fetch", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler.DailyFetch(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var response SyncResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, 12, response.Collected)
		assert.Equal(t, 10, response.Persisted)
	})

	t.Run("relays failure statuses untouched", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"error":"store down"}`))
		}))
		defer backend.Close()

		handler := NewCronHandler(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), backend.URL, "s3cret", testLogger())

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/cron/daily-fetch", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler.DailyFetch(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("unreachable sync endpoint wraps as 500", func(t *testing.T) {
		handler := NewCronHandler(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), "http://127.0.0.1:1", "s3cret", testLogger())

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/cron/daily-fetch", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler.DailyFetch(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var response SyncResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.False(t, response.Success)
		assert.NotEmpty(t, response.Error)
	})
}
