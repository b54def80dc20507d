package bootstrap_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-emptrack/internal/bootstrap"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditLogger struct {
	mu      sync.Mutex
	entries []bootstrap.AuditLog
}

func (l *recordingAuditLogger) Log(_ context.Context, entry bootstrap.AuditLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func TestRunHTTPServer_GracefulShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAuditLogger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- bootstrap.RunHTTPServer(ctx, gin.New(), bootstrap.ServerConfig{Port: "0"}, audit)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "SERVER_SHUTDOWN", audit.entries[0].Action)
}

func TestRunHTTPServer_ListenError(t *testing.T) {
	err := bootstrap.RunHTTPServer(context.Background(), gin.New(), bootstrap.ServerConfig{Port: "not-a-port"}, &recordingAuditLogger{})
	assert.Error(t, err)
}
