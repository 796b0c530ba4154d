// Package mapper projects recovered model objects onto the output
// schema with tolerant key matching.
package mapper

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"prodnorm/internal/domain"
	"prodnorm/internal/schema"
)

// Row builds the output row for one record. Every schema column is
// present in the result. Columns the model left null fall back to the
// deterministic extraction; a nil parsed object degrades to a
// placeholder row carrying the record URL when known.
func Row(parsed map[string]interface{}, det domain.DeterministicFields, cols schema.Schema) domain.Row {
	if parsed == nil {
		var correlationID string
		if det.URL != nil {
			correlationID = *det.URL
		}
		return PlaceholderRow(cols, correlationID)
	}

	fallback := det.Map()
	row := make(domain.Row, len(cols))
	for _, col := range cols {
		v, _ := ResolveKey(parsed, col)
		if v == nil {
			v, _ = ResolveKey(fallback, col)
		}
		row[col] = cellValue(v)
	}
	return row
}

// PlaceholderRow returns an all-empty row for a record that produced no
// usable object. The correlation id lands in the first identifier
// column the schema actually has, url before product ID, so the row
// stays traceable to its input.
func PlaceholderRow(cols schema.Schema, correlationID string) domain.Row {
	row := make(domain.Row, len(cols))
	for _, col := range cols {
		row[col] = ""
	}
	if correlationID == "" {
		return row
	}
	for _, id := range []string{"url", "product ID"} {
		if _, ok := row[id]; ok {
			row[id] = correlationID
			break
		}
	}
	return row
}

// ResolveKey looks up a schema column in a parsed object, tolerating
// the key spellings models actually produce. Precedence: exact,
// lowercase, spaces to underscores (and its lowercase), spaces removed
// (and its lowercase), then a scan comparing trimmed lowercase keys.
func ResolveKey(parsed map[string]interface{}, column string) (interface{}, bool) {
	if v, ok := parsed[column]; ok {
		return v, true
	}
	lower := strings.ToLower(column)
	if v, ok := parsed[lower]; ok {
		return v, true
	}
	underscored := strings.ReplaceAll(column, " ", "_")
	if v, ok := parsed[underscored]; ok {
		return v, true
	}
	if v, ok := parsed[strings.ToLower(underscored)]; ok {
		return v, true
	}
	squeezed := strings.ReplaceAll(column, " ", "")
	if v, ok := parsed[squeezed]; ok {
		return v, true
	}
	if v, ok := parsed[strings.ToLower(squeezed)]; ok {
		return v, true
	}

	keys := make([]string, 0, len(parsed))
	for k := range parsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.ToLower(strings.TrimSpace(k)) == lower {
			return parsed[k], true
		}
	}
	return nil, false
}

// cellValue renders one value to its CSV cell text. Arrays and objects
// keep their structure as JSON strings so nothing is lost in the cell.
func cellValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []interface{}, map[string]interface{}, []string:
		return jsonCell(t)
	default:
		return fmt.Sprint(t)
	}
}

func jsonCell(v interface{}) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
