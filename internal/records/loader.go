// Package records loads raw product records from scrape dump
// directories.
package records

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"prodnorm/internal/domain"
)

var jsonSuffixes = map[string]bool{
	".json":   true,
	".ndjson": true,
	".jsonl":  true,
	".txt":    true,
}

// Loader reads every JSON-bearing file under a directory tree. Files
// may hold a JSON array, a single object, or newline-delimited objects.
// Order is deterministic: lexical walk, line order within a file.
type Loader struct {
	stripKeys []string
	logger    *log.Logger
}

// NewLoader creates a new Loader. stripKeys are removed from every
// record before it is published; nil logger falls back to the default.
func NewLoader(stripKeys []string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{stripKeys: stripKeys, logger: logger}
}

// LoadDir gathers all records under dir. Unreadable files and invalid
// lines are logged and skipped; an empty result is domain.ErrNoRecords.
func (l *Loader) LoadDir(dir string) ([]domain.RawRecord, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if jsonSuffixes[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking input dir %s: %w", dir, err)
	}
	l.logger.Printf("Loader.LoadDir: found %d candidate files in %s", len(paths), dir)

	var records []domain.RawRecord
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Printf("Loader.LoadDir: reading %s: %v", path, err)
			continue
		}
		for _, rec := range l.parseFile(path, data) {
			l.strip(rec)
			records = append(records, rec)
		}
	}
	l.logger.Printf("Loader.LoadDir: loaded %d records", len(records))

	if len(records) == 0 {
		return nil, fmt.Errorf("input dir %s: %w", dir, domain.ErrNoRecords)
	}
	return records, nil
}

// parseFile decodes one file: a whole-document array or object first,
// then line by line as NDJSON.
func (l *Loader) parseFile(path string, data []byte) []domain.RawRecord {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err == nil {
		switch t := doc.(type) {
		case []interface{}:
			records := make([]domain.RawRecord, 0, len(t))
			for _, item := range t {
				if rec, ok := item.(map[string]interface{}); ok {
					records = append(records, rec)
				} else {
					l.logger.Printf("Loader.LoadDir: %s: skipping non-object array element", path)
				}
			}
			return records
		case map[string]interface{}:
			return []domain.RawRecord{t}
		default:
			l.logger.Printf("Loader.LoadDir: %s: top-level JSON is neither array nor object", path)
			return nil
		}
	}

	var records []domain.RawRecord
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			l.logger.Printf("Loader.LoadDir: %s: skipping invalid JSON line %q: %v", path, snippet(line, 200), err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (l *Loader) strip(rec domain.RawRecord) {
	for _, key := range l.stripKeys {
		if _, ok := rec[key]; ok {
			delete(rec, key)
			l.logger.Printf("Loader.LoadDir: removed %q from record", key)
		}
	}
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
