package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/pkg/block"
)

// LogHooks returns lifecycle hooks that log every event to logger.
// Successful steps are logged at debug level, failures at warn.
func LogHooks(logger *slog.Logger) block.Hooks {
	logEvent := func(ctx context.Context, e *block.Event) {
		attrs := []any{
			"block", e.Block,
			"phase", string(e.Phase),
			"context_id", e.ContextID,
			"duration", e.Duration,
		}
		if e.Err != nil {
			logger.WarnContext(ctx, "block_failed", append(attrs, "error", e.Err)...)
			return
		}
		logger.DebugContext(ctx, "block_"+string(e.Phase), attrs...)
	}

	return block.Hooks{
		OnWarmup:   logEvent,
		OnActivate: logEvent,
		OnCleanup:  logEvent,
	}
}
