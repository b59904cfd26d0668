package core

import (
	"fmt"

	"github.com/rs/zerolog"
)

// cronLogger routes robfig/cron's logging into zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(fmt.Sprintf("[cron] %s", msg))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(fmt.Sprintf("[cron] %s", msg))
}
