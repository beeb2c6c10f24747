// Package reporters implements the error-reporting backend of the handler
// framework: the Reporter handler interface, the built-in reporter
// implementations, and the process-wide reporter registry the rest of a host
// application routes its reports through.
package reporters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lukaszraczylo/handlerswap"
	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

// Severity classifies a report.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Report is a single diagnostic record delivered to the active reporter.
type Report struct {
	ID       string    `json:"id"`
	Severity Severity  `json:"severity"`
	Module   string    `json:"module"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// NewReport creates a report with a fresh ID and the current timestamp.
func NewReport(severity Severity, module, message string) Report {
	return Report{
		ID:       uuid.NewString(),
		Severity: severity,
		Module:   module,
		Message:  message,
		Time:     time.Now().UTC(),
	}
}

// Reporter is the handler interface managed by the reporter registry. Every
// implementation carries the activation capability, so consumers can switch
// a reporter off without uninstalling it.
type Reporter interface {
	handlerswap.Activatable

	// Report delivers one record. Delivery failures are surfaced to the
	// caller; the reporter must stay usable afterwards.
	Report(ctx context.Context, r Report) error
}

// LogReporter is the default reporter. It writes reports through the
// framework logger and is always safe to construct.
type LogReporter struct {
	handlerswap.ActivationFlag
	log logger.Logger
}

// NewLogReporter creates a LogReporter. A nil log falls back to the no-op
// logger singleton.
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = handlerswap.GetSingletonNoOpLogger()
	}
	return &LogReporter{log: log}
}

// Report writes the record at the log level matching its severity.
func (r *LogReporter) Report(_ context.Context, rep Report) error {
	entry := r.log.WithFields(map[string]interface{}{
		"id":     rep.ID,
		"module": rep.Module,
	})
	switch rep.Severity {
	case SeverityInfo:
		entry.Info(rep.Message)
	case SeverityWarning:
		entry.Infof("warning: %s", rep.Message)
	default:
		entry.Error(rep.Message)
	}
	return nil
}

// Dispatch delivers a report through the process-wide active reporter,
// skipping delivery when the active reporter is switched off.
func Dispatch(ctx context.Context, rep Report) error {
	reporter, err := Active()
	if err != nil {
		return err
	}
	if !reporter.IsActive() {
		return nil
	}
	return reporter.Report(ctx, rep)
}
