package browser

import (
	"context"

	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/gather"
)

// Factory adapts NewSession to the gatherer's session factory.
func Factory(cfg Config, logger *zap.Logger) gather.SessionFactory {
	return func(ctx context.Context) (gather.Session, error) {
		return NewSession(ctx, cfg, logger)
	}
}
