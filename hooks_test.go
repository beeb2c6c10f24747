package handlerswap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

func TestNopHooks_Silent(t *testing.T) {
	assert.NotPanics(t, func() {
		NopHooks[probe]{}.OnSetAfterFinalize(&probeHandler{tag: "a"}, &probeHandler{tag: "b"})
	})
}

func TestLoggingHooks_ReportsAttempt(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewStandardLogger("error", &buf, nil, nil)

	LoggingHooks[probe]{Log: log}.OnSetAfterFinalize(&probeHandler{tag: "a"}, &probeHandler{tag: "b"})

	assert.Contains(t, buf.String(), "replacement attempted after finalize")
}

func TestLoggingHooks_NilLoggerFallsBack(t *testing.T) {
	assert.NotPanics(t, func() {
		LoggingHooks[probe]{}.OnSetAfterFinalize(&probeHandler{tag: "a"}, &probeHandler{tag: "b"})
	})
}

func TestPanicHooks_Fatal(t *testing.T) {
	assert.Panics(t, func() {
		PanicHooks[probe]{}.OnSetAfterFinalize(&probeHandler{tag: "a"}, &probeHandler{tag: "b"})
	})
}
