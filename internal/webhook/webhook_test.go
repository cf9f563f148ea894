package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"inside-notes/internal/core"
	"inside-notes/pkg"
)

func event() core.ReportEvent {
	return core.ReportEvent{
		Visit:       pkg.Visit{ID: "v1", ClientName: "Acme"},
		Annotations: []pkg.Annotation{{ID: "a1", Kind: pkg.KindAction, Body: "ok"}},
		Summary:     "Laudo final.",
		ReportURL:   "https://example.com/laudo-v1.pdf",
	}
}

func TestReportGenerated_PostsEvent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL+"/hook", nil).ReportGenerated(context.Background(), event())
	require.NoError(t, err)
	assert.Equal(t, "Laudo final.", got["summary"])
	assert.Equal(t, "https://example.com/laudo-v1.pdf", got["report_url"])
	assert.Equal(t, "v1", got["visit"].(map[string]any)["id"])
}

func TestReportGenerated_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, nil).SetRetry(3, time.Millisecond)
	require.NoError(t, n.ReportGenerated(context.Background(), event()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReportGenerated_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	obs, logs := observer.New(zapcore.DebugLevel)
	n := NewNotifier(srv.URL, zap.New(obs)).SetRetry(3, time.Millisecond)
	err := n.ReportGenerated(context.Background(), event())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}
