// Command batchmerge converts an asynchronous batch results file into
// the normalized output CSV. Every JSON line in the results file
// produces exactly one row; lines whose payload cannot be recovered
// become placeholder rows carrying the custom_id.
// Usage: go run ./cmd/batchmerge -results results.jsonl -output products.csv
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"prodnorm/internal/batch"
	"prodnorm/internal/config"
	"prodnorm/internal/csvexport"
	"prodnorm/internal/schema"
)

var (
	resultsPath  = flag.String("results", "", "Batch results JSONL file (required)")
	outputPath   = flag.String("output", "", "Output CSV path (default derived from results path)")
	templatePath = flag.String("template", "", "Schema template file, .csv or .xlsx (default from config)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if *resultsPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required -results flag")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *templatePath != "" {
		cfg.Output.TemplatePath = *templatePath
	}

	outPath := *outputPath
	if outPath == "" {
		base := strings.TrimSuffix(*resultsPath, filepath.Ext(*resultsPath))
		outPath = base + ".csv"
	}

	var cols schema.Schema
	if cfg.Output.TemplatePath != "" {
		cols, err = schema.Load(cfg.Output.TemplatePath)
		if err != nil {
			return err
		}
	} else {
		cols = schema.Default()
	}

	f, err := os.Open(*resultsPath)
	if err != nil {
		return fmt.Errorf("opening results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sink, err := csvexport.CreateFile(outPath, cols)
	if err != nil {
		return err
	}

	merger := batch.NewResults(cols, nil)
	written, mergeErr := merger.Merge(f, sink)
	if closeErr := sink.Close(); closeErr != nil && mergeErr == nil {
		mergeErr = fmt.Errorf("closing output csv: %w", closeErr)
	}
	if mergeErr != nil {
		return mergeErr
	}

	log.Printf("Merged %d result rows into %s", written, outPath)
	return nil
}
