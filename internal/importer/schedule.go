package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds a single scheduled import.
const runTimeout = 5 * time.Minute

// Schedule runs the importer on a standard five-field cron spec. Overlapping
// runs are skipped. The returned scheduler is already started; stop it on
// shutdown.
func (i *Importer) Schedule(spec string) (*cron.Cron, error) {
	logger := cronLogger{log: i.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		// Errors are logged and counted inside Run.
		_, _ = i.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid import schedule %q: %w", spec, err)
	}

	c.Start()
	i.log.Info("Workbook import scheduled", zap.String("schedule", spec))

	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, zap.Any("details", keysAndValues), zap.Error(err))
}
