package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	defer func(log *zap.Logger) { Log = log }(Log)

	require.NoError(t, Initialize("debug", "development"))
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))

	assert.Error(t, Initialize("loud", "production"))
}

func TestRequestLogger(t *testing.T) {
	defer func(log *zap.Logger) { Log = log }(Log)

	core, logs := observer.New(zap.InfoLevel)
	Log = zap.New(core)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/accounts", fields["uri"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}
