package port

import (
	"context"

	"prodnorm/internal/domain"
)

// RunNotifier reports a finished pipeline run.
type RunNotifier interface {
	NotifyRunComplete(ctx context.Context, summary domain.RunSummary) error
}
