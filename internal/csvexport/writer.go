// Package csvexport writes normalized rows as CSV in schema order.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"prodnorm/internal/domain"
	"prodnorm/internal/schema"
)

// Writer wraps csv.Writer and renders rows in its schema's column
// order.
type Writer struct {
	csv     *csv.Writer
	columns schema.Schema
}

// NewWriter creates a Writer that writes CSV to w with the given
// column order.
func NewWriter(w io.Writer, columns schema.Schema) *Writer {
	return &Writer{csv: csv.NewWriter(w), columns: columns}
}

// WriteHeader writes the schema as the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(w.columns)
}

// WriteRow renders one row in schema order and flushes it, so write
// failures surface on the row that hit them. Missing columns become
// empty cells.
func (w *Writer) WriteRow(row domain.Row) error {
	cells := make([]string, len(w.columns))
	for i, col := range w.columns {
		cells[i] = row[col]
	}
	if err := w.csv.Write(cells); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// FileWriter is a Writer bound to a file on disk.
type FileWriter struct {
	*Writer
	f *os.File
}

// OpenFile opens path for appending and returns a FileWriter. The
// header row is written only when the file is new or empty, so repeated
// runs against the same destination keep a single header.
func OpenFile(path string, columns schema.Schema) (*FileWriter, error) {
	info, statErr := os.Stat(path)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output csv: %w", err)
	}
	fw := &FileWriter{Writer: NewWriter(f, columns), f: f}
	if writeHeader {
		if err := fw.writeHeaderNow(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return fw, nil
}

// CreateFile truncates path and returns a FileWriter with a fresh
// header, for outputs rebuilt from scratch.
func CreateFile(path string, columns schema.Schema) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output csv: %w", err)
	}
	fw := &FileWriter{Writer: NewWriter(f, columns), f: f}
	if err := fw.writeHeaderNow(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return fw, nil
}

func (w *FileWriter) writeHeaderNow() error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *FileWriter) Close() error {
	w.Flush()
	if err := w.Error(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a run name for use in an object key or
// filename. Replaces non-alphanumeric chars (except - _) with _,
// collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized, dated filename for an exported
// CSV. Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
