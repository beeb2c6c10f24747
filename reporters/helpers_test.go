package reporters

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/handlerswap"
	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

// capturingLogger records every message routed through it.
type capturingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *capturingLogger) record(msg string) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

func (l *capturingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *capturingLogger) Debug(msg string) { l.record(msg) }
func (l *capturingLogger) Debugf(format string, args ...interface{}) {
	l.record(fmt.Sprintf(format, args...))
}
func (l *capturingLogger) Info(msg string) { l.record(msg) }
func (l *capturingLogger) Infof(format string, args ...interface{}) {
	l.record(fmt.Sprintf(format, args...))
}
func (l *capturingLogger) Error(msg string) { l.record(msg) }
func (l *capturingLogger) Errorf(format string, args ...interface{}) {
	l.record(fmt.Sprintf(format, args...))
}

func (l *capturingLogger) WithField(key string, value interface{}) logger.Logger  { return l }
func (l *capturingLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }

// recordingReporter captures every delivered report.
type recordingReporter struct {
	handlerswap.ActivationFlag
	mu      sync.Mutex
	reports []Report
}

func (r *recordingReporter) Report(_ context.Context, rep Report) error {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
	return nil
}

func (r *recordingReporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// miniredisServer manages a miniredis instance plus a verification client.
type miniredisServer struct {
	server *miniredis.Miniredis
	client *redis.Client
}

func newMiniredisServer(t *testing.T) *miniredisServer {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err(), "failed to ping miniredis")

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &miniredisServer{server: mr, client: client}
}

func (m *miniredisServer) Addr() string { return m.server.Addr() }
