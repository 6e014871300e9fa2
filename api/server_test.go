package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvasqm/rate-tray/common"
	"github.com/ruvasqm/rate-tray/testsCommon"
)

func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("nil storage should error", func(t *testing.T) {
		s, err := NewServer(ArgsWebServer{ListenAddress: "127.0.0.1:0"})

		assert.Nil(t, s)
		assert.True(t, s.IsInterfaceNil())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage is required")
	})
	t.Run("empty listen address should error", func(t *testing.T) {
		s, err := NewServer(ArgsWebServer{Storage: &testsCommon.StoreStub{}})

		assert.Nil(t, s)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty listen address")
	})
	t.Run("should work", func(t *testing.T) {
		s, err := NewServer(ArgsWebServer{
			ListenAddress: "127.0.0.1:0",
			Storage:       &testsCommon.StoreStub{},
		})

		assert.NotNil(t, s)
		assert.False(t, s.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestServer_HandleLatest(t *testing.T) {
	t.Parallel()

	t.Run("empty history should return 404", func(t *testing.T) {
		s, err := NewServer(ArgsWebServer{
			ListenAddress: "127.0.0.1:0",
			Storage:       &testsCommon.StoreStub{},
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("storage error should return 500", func(t *testing.T) {
		store := &testsCommon.StoreStub{
			LatestHandler: func(ctx context.Context) (*common.HistoryEntry, error) {
				return nil, errors.New("disk on fire")
			},
		}
		s, err := NewServer(ArgsWebServer{ListenAddress: "127.0.0.1:0", Storage: store})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
	t.Run("should return the latest entry", func(t *testing.T) {
		store := &testsCommon.StoreStub{
			LatestHandler: func(ctx context.Context) (*common.HistoryEntry, error) {
				return &common.HistoryEntry{Seq: 3, Value: 36.9, ObservedAt: 1756116000}, nil
			},
		}
		s, err := NewServer(ArgsWebServer{ListenAddress: "127.0.0.1:0", Storage: store})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var entry common.HistoryEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, common.HistoryEntry{Seq: 3, Value: 36.9, ObservedAt: 1756116000}, entry)
	})
}

func TestServer_HandleHistory(t *testing.T) {
	t.Parallel()

	entries := []common.HistoryEntry{
		{Seq: 2, Value: 37.1, ObservedAt: 1756116000},
		{Seq: 1, Value: 36.52, ObservedAt: 1756115000},
	}
	requestedN := 0
	store := &testsCommon.StoreStub{
		RecentHandler: func(ctx context.Context, n int) ([]common.HistoryEntry, error) {
			requestedN = n
			return entries, nil
		},
	}

	s, err := NewServer(ArgsWebServer{ListenAddress: "127.0.0.1:0", Storage: store})
	require.NoError(t, err)

	t.Run("default limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 50, requestedN)

		var resp struct {
			Entries []common.HistoryEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, entries, resp.Entries)
	})
	t.Run("explicit limit is capped", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/history?n=50000", nil)
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1000, requestedN)
	})
	t.Run("invalid limit should return 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/history?n=zero", nil)
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_AuthAPIKey(t *testing.T) {
	t.Parallel()

	store := &testsCommon.StoreStub{
		LatestHandler: func(ctx context.Context) (*common.HistoryEntry, error) {
			return &common.HistoryEntry{Seq: 1, Value: 1, ObservedAt: 1}, nil
		},
	}
	s, err := NewServer(ArgsWebServer{
		ListenAddress: "127.0.0.1:0",
		ServiceKeyApi: "secret",
		Storage:       store,
	})
	require.NoError(t, err)

	t.Run("missing key should return 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("wrong key should return 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		req.Header.Set("X-Api-Key", "guess")
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("correct key should pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/latest", nil)
		req.Header.Set("X-Api-Key", "secret")
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
