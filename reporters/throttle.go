package reporters

import (
	"context"

	"golang.org/x/time/rate"

	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
)

// ThrottledReporter decorates another reporter with a rate limit. Reports
// exceeding the limit are dropped with a rate-limited error instead of
// blocking the caller; activation state is delegated to the wrapped
// reporter.
type ThrottledReporter struct {
	inner   Reporter
	limiter *rate.Limiter
}

// NewThrottledReporter wraps inner with a limit of perSecond reports and the
// given burst. A burst below 1 is raised to 1 so a configured limit always
// admits at least one report.
func NewThrottledReporter(inner Reporter, perSecond float64, burst int) *ThrottledReporter {
	if burst < 1 {
		burst = 1
	}
	return &ThrottledReporter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Unwrap returns the decorated reporter.
func (t *ThrottledReporter) Unwrap() Reporter { return t.inner }

func (t *ThrottledReporter) Activate()      { t.inner.Activate() }
func (t *ThrottledReporter) Deactivate()    { t.inner.Deactivate() }
func (t *ThrottledReporter) IsActive() bool { return t.inner.IsActive() }

// Report forwards the record if the limiter admits it.
func (t *ThrottledReporter) Report(ctx context.Context, rep Report) error {
	if !t.limiter.Allow() {
		return liberrors.NewRateLimitedError(rep.ID)
	}
	return t.inner.Report(ctx, rep)
}
