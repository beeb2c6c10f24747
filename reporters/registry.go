package reporters

import (
	"sync"

	"github.com/lukaszraczylo/handlerswap"
	"github.com/lukaszraczylo/handlerswap/config"
	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

var (
	// registryOnce ensures the process-wide reporter registry is wired once
	registryOnce  sync.Once
	registryGuard *handlerswap.Guard[handlerswap.Registry[Reporter]]
	registryErr   error
)

// NewDefaultReporter builds the default reporter described by the settings:
// the sink selected by settings.Reporting, optionally wrapped with a
// throttle. Redis sink construction failures are surfaced so the registry
// retries on the next access.
func NewDefaultReporter(settings *config.Settings, log logger.Logger) (Reporter, error) {
	var reporter Reporter
	switch settings.Reporting.Sink {
	case config.SinkRedis:
		redisReporter, err := NewRedisReporter(settings.Reporting.Redis, log)
		if err != nil {
			return nil, err
		}
		reporter = redisReporter
	default:
		reporter = NewLogReporter(log)
	}

	if settings.Reporting.RatePerSecond > 0 {
		reporter = NewThrottledReporter(reporter, settings.Reporting.RatePerSecond, settings.Reporting.Burst)
	}
	return reporter, nil
}

// NewRegistry builds a reporter registry from explicit settings. Hosts that
// manage their own configuration use this directly; everything else goes
// through the process-wide Registry accessor.
func NewRegistry(settings *config.Settings, log logger.Logger) *handlerswap.Registry[Reporter] {
	if settings == nil {
		settings = config.NewSettings()
	}
	if log == nil {
		log = handlerswap.GetSingletonNoOpLogger()
	}
	return handlerswap.New(
		func() (Reporter, error) { return NewDefaultReporter(settings, log) },
		hooksFor(settings.PostFinalizePolicy, log),
		handlerswap.WithName[Reporter]("reporters"),
		handlerswap.WithLogger[Reporter](log),
	)
}

func hooksFor(policy string, log logger.Logger) handlerswap.Hooks[Reporter] {
	switch policy {
	case config.PolicyIgnore:
		return handlerswap.NopHooks[Reporter]{}
	case config.PolicyPanic:
		return handlerswap.PanicHooks[Reporter]{}
	default:
		return handlerswap.LoggingHooks[Reporter]{Log: log}
	}
}

// Registry returns the process-wide reporter registry, constructing and
// pinning it on first use. Configuration is read through config.NewLoader;
// an unreadable configuration falls back to defaults so the registry always
// comes up.
func Registry() (*handlerswap.Registry[Reporter], error) {
	registryOnce.Do(func() {
		registryGuard, registryErr = handlerswap.Shared(func() (*handlerswap.Registry[Reporter], error) {
			settings, err := config.NewLoader().Load()
			if err != nil {
				settings = config.NewSettings()
			}
			log := logger.NewDefault(settings.LogLevel)
			return NewRegistry(settings, log), nil
		})
	})
	if registryErr != nil {
		return nil, registryErr
	}
	return registryGuard.Get(), nil
}

// Active returns the currently active reporter, constructing the default on
// first access.
func Active() (Reporter, error) {
	registry, err := Registry()
	if err != nil {
		return nil, err
	}
	return registry.GetE()
}

// Swap installs reporter as the active one and returns the previous
// reporter. The caller keeps reporter alive while it may be active.
func Swap(reporter Reporter) (Reporter, error) {
	registry, err := Registry()
	if err != nil {
		return nil, err
	}
	return registry.Set(reporter), nil
}

// Restore reinstates the default reporter and returns the previous one.
func Restore() (Reporter, error) {
	registry, err := Registry()
	if err != nil {
		return nil, err
	}
	return registry.Reset()
}

// Seal finalizes the reporter registry: from here on Swap and Restore are
// routed to the configured post-finalize policy instead of applied.
func Seal() error {
	registry, err := Registry()
	if err != nil {
		return err
	}
	registry.Finalize()
	return nil
}
