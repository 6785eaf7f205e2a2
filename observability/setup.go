package observability

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/lesstokens/logger"
)

// Setup installs tracer and meter providers when cfg.Enabled and returns a
// shutdown function that flushes both. When disabled it returns a no-op.
func Setup(ctx context.Context, cfg Config, log *logger.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
