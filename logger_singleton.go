package handlerswap

import (
	"sync"

	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

var (
	// singletonNoOpLogger is the global instance of the no-op logger
	singletonNoOpLogger logger.Logger
	// noOpLoggerOnce ensures the singleton is created only once
	noOpLoggerOnce sync.Once
)

// GetSingletonNoOpLogger returns the singleton no-op logger instance. It is
// the fallback logger for every component that was not handed an explicit
// one, so unconfigured registries stay silent.
func GetSingletonNoOpLogger() logger.Logger {
	noOpLoggerOnce.Do(func() {
		singletonNoOpLogger = logger.NewNoOpLogger()
	})
	return singletonNoOpLogger
}
