package noop

import (
	"context"
	"log"

	"prodnorm/internal/domain"
	"prodnorm/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a RunNotifier that only logs the summary.
func NewNoopNotifier() port.RunNotifier {
	return &noopNotifier{}
}

func (n *noopNotifier) NotifyRunComplete(_ context.Context, summary domain.RunSummary) error {
	log.Printf("[NOOP NOTIFY] run %s: %d records, %d rows written, %d placeholders, %d cache hits, %d retries, %d audit issues in %s",
		summary.RunID, summary.TotalRecords, summary.RowsWritten, summary.Placeholders,
		summary.CacheHits, summary.Retries, summary.AuditIssues, summary.Duration)
	return nil
}
