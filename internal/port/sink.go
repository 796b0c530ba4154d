package port

import "prodnorm/internal/domain"

// RowSink consumes normalized rows. Implementations are not required
// to be safe for concurrent use; the pipeline serializes writes.
type RowSink interface {
	WriteRow(row domain.Row) error
}
