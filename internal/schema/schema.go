// Package schema defines the ordered output column set and loads it
// from template files.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"prodnorm/internal/domain"
)

// Schema is the ordered list of output column names. Order is
// authoritative: every output row renders its cells in schema order.
type Schema []string

// Default returns the built-in product column set used when no template
// file is configured.
func Default() Schema {
	return Schema{
		"platform",
		"date",
		"product ID",
		"name",
		"scientific name",
		"product form",
		"net quantity",
		"unit",
		"price",
		"price per unit",
		"seller name",
		"seller type",
		"seller origin",
		"number of reviews",
		"average rating",
		"sales rank or badge",
		"certifications",
		"claims",
		"transparency origin",
		"cold pressed",
		"steam distilled",
		"refined",
		"list of ingredients",
		"image",
		"product description",
		"return policy",
		"collection method",
	}
}

// Load reads the column set from the first row of a template file.
// CSV and XLSX templates are supported.
func Load(path string) (Schema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported template type %q", filepath.Ext(path))
	}
}

func loadCSV(path string) (Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer func() { _ = f.Close() }()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("template %s: %w", path, domain.ErrEmptyTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("reading template header: %w", err)
	}
	return fromHeader(path, header)
}

func loadXLSX(path string) (Schema, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading template sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("template %s: %w", path, domain.ErrEmptyTemplate)
	}
	return fromHeader(path, rows[0])
}

func fromHeader(path string, cells []string) (Schema, error) {
	cols := make(Schema, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("template %s: %w", path, domain.ErrEmptyTemplate)
	}
	return cols, nil
}
