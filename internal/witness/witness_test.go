package witness

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop_DegradesWithoutIO(t *testing.T) {
	ctx := context.Background()
	var w Witness = Noop{}

	assert.False(t, w.Configured())
	assert.Equal(t, Receipt{}, w.RecordEntry(ctx, "a1", "hash", "MATCHED", ""))
	assert.Equal(t, Receipt{}, w.UpdateEntry(ctx, "a1", "hash", "COMPLETED", "prev"))
	assert.Nil(t, w.GetRecord(ctx, "a1"))
	assert.Nil(t, w.GetHistory(ctx, "a1"))
	assert.Zero(t, w.TotalCount(ctx))
}

func TestHTTPWitness_RecordEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/records", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a1", payload["allocationId"])
		assert.Equal(t, "PENDING_CONFIRMATION", payload["status"])

		_ = json.NewEncoder(w).Encode(map[string]string{"ref": "wit-1", "txRef": "0xabc"})
	}))
	defer srv.Close()

	w := NewHTTP(srv.URL, "test-key", time.Second, slog.Default())
	receipt := w.RecordEntry(context.Background(), "a1", "deadbeef", "PENDING_CONFIRMATION", "")
	assert.True(t, receipt.Witnessed)
	assert.Equal(t, "wit-1", receipt.Ref)
	assert.Equal(t, "0xabc", receipt.TxRef)
}

func TestHTTPWitness_FailureDegrades(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		w := NewHTTP(srv.URL, "key", time.Second, slog.Default())
		assert.Equal(t, Receipt{}, w.RecordEntry(context.Background(), "a1", "h", "MATCHED", ""))
		assert.Nil(t, w.GetRecord(context.Background(), "a1"))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer srv.Close()

		w := NewHTTP(srv.URL, "key", 10*time.Millisecond, slog.Default())
		start := time.Now()
		receipt := w.RecordEntry(context.Background(), "a1", "h", "MATCHED", "")
		assert.False(t, receipt.Witnessed)
		assert.Less(t, time.Since(start), 90*time.Millisecond, "timeout must bound the call")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		w := NewHTTP("http://127.0.0.1:1", "key", 50*time.Millisecond, slog.Default())
		assert.Equal(t, Receipt{}, w.RecordEntry(context.Background(), "a1", "h", "MATCHED", ""))
		assert.Nil(t, w.GetHistory(context.Background(), "a1"))
		assert.Zero(t, w.TotalCount(context.Background()))
	})
}

func TestHTTPWitness_GetHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/records/a1/history", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Record{
			{AllocationID: "a1", Status: "PENDING_CONFIRMATION", DataHash: "h1"},
			{AllocationID: "a1", Status: "MATCHED", DataHash: "h2", PreviousHash: "h1"},
		})
	}))
	defer srv.Close()

	w := NewHTTP(srv.URL, "key", time.Second, slog.Default())
	history := w.GetHistory(context.Background(), "a1")
	require.Len(t, history, 2)
	assert.Equal(t, "MATCHED", history[1].Status)
}
