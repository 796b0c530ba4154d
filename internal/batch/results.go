package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"prodnorm/internal/domain"
	"prodnorm/internal/mapper"
	"prodnorm/internal/port"
	"prodnorm/internal/repair"
	"prodnorm/internal/schema"
)

// Results merges an asynchronous batch results file into normalized
// rows. The merge runs without the source records, so rows have no
// deterministic fallback; placeholders carry the custom id in the
// product ID column.
type Results struct {
	schema schema.Schema
	logger *log.Logger
}

// NewResults creates a new Results merger for the given schema.
func NewResults(cols schema.Schema, logger *log.Logger) *Results {
	if logger == nil {
		logger = log.Default()
	}
	return &Results{schema: cols, logger: logger}
}

// Merge reads result lines from r and writes one row per line to sink.
// Blank lines are skipped; non-JSON lines are logged and skipped; every
// JSON line produces exactly one row, placeholder or not.
func (m *Results) Merge(r io.Reader, sink port.RowSink) (int, error) {
	reader := bufio.NewReader(r)
	written := 0
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var envelope map[string]interface{}
			if jsonErr := json.Unmarshal([]byte(trimmed), &envelope); jsonErr != nil {
				m.logger.Printf("Results.Merge: skipping non-JSON line %q", snippet(trimmed, 200))
			} else {
				if writeErr := sink.WriteRow(m.rowFor(envelope)); writeErr != nil {
					return written, fmt.Errorf("writing row %d: %w", written, writeErr)
				}
				written++
				if written%100 == 0 {
					m.logger.Printf("Results.Merge: progress written=%d", written)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("reading results: %w", err)
		}
	}
	return written, nil
}

func (m *Results) rowFor(envelope map[string]interface{}) domain.Row {
	if content, ok := repair.ContentFromResult(envelope); ok {
		if parsed, ok := repair.Parse(content); ok {
			return mapper.Row(parsed, domain.DeterministicFields{}, m.schema)
		}
	}

	cid := correlationID(envelope)
	m.logger.Printf("Results.Merge: no object recovered, writing placeholder custom_id=%q", cid)
	row := mapper.PlaceholderRow(m.schema, "")
	if cid != "" {
		if _, ok := row["product ID"]; ok {
			row["product ID"] = cid
		}
	}
	return row
}

func correlationID(envelope map[string]interface{}) string {
	if s, ok := envelope["custom_id"].(string); ok && s != "" {
		return s
	}
	if resp, ok := envelope["response"].(map[string]interface{}); ok {
		if s, ok := resp["request_id"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
