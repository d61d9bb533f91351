// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// shutdownStep is one resource released during Shutdown, in order.
type shutdownStep struct {
	name string
	stop func(context.Context) error
}

// Shutdown stops the goal scheduler before disconnecting MongoDB so no job
// is cut off mid-write. Every step runs even if an earlier one fails; the
// failures are joined. ctx carries the shutdown timeout.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var steps []shutdownStep
	if taskRunner != nil {
		steps = append(steps, shutdownStep{"background task runner", taskRunner.Stop})
	}
	if deps.MongoClient != nil {
		steps = append(steps, shutdownStep{"MongoDB client", deps.MongoClient.Disconnect})
	}

	var errs []error
	for _, s := range steps {
		logger.Info("shutting down", zap.String("component", s.name))
		if err := s.stop(ctx); err != nil {
			logger.Error("shutdown step failed", zap.String("component", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
