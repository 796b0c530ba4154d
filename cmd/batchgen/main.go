// Command batchgen emits a JSONL batch request file for asynchronous
// processing instead of calling the model inline. Each input record
// becomes one request line whose custom_id encodes the record ordinal.
// Usage: go run ./cmd/batchgen -input data/raw -output requests.jsonl
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
	"prodnorm/internal/domain"
	"prodnorm/internal/extract"
	"prodnorm/internal/prompt"
	"prodnorm/internal/records"
)

var (
	inputDir     = flag.String("input", "", "Input directory of raw JSON records (default from config)")
	outputPath   = flag.String("output", "", "Output JSONL path (default derived from config CSV path)")
	templatePath = flag.String("template", "", "Prompt template file containing the input marker (default embedded)")
	limitRecords = flag.Int("limit", 0, "Optional limit for testing (0 = all records)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *inputDir != "" {
		cfg.Input.Dir = *inputDir
	}
	if *templatePath != "" {
		cfg.Prompt.TemplatePath = *templatePath
	}

	outPath := *outputPath
	if outPath == "" {
		base := strings.TrimSuffix(cfg.Output.CSVPath, filepath.Ext(cfg.Output.CSVPath))
		outPath = base + ".jsonl"
	}

	loader := records.NewLoader(cfg.Input.StripKeys, nil)
	raws, err := loader.LoadDir(cfg.Input.Dir)
	if err != nil {
		return err
	}
	if *limitRecords > 0 && len(raws) > *limitRecords {
		raws = raws[:*limitRecords]
	}

	recs := make([]domain.Record, len(raws))
	for i, raw := range raws {
		recs[i] = domain.Record{Ordinal: i, Raw: raw, Deterministic: extract.Fields(raw)}
	}
	log.Printf("Loaded %d records from %s", len(recs), cfg.Input.Dir)

	template := ""
	if cfg.Prompt.TemplatePath != "" {
		data, err := os.ReadFile(cfg.Prompt.TemplatePath)
		if err != nil {
			return fmt.Errorf("reading prompt template: %w", err)
		}
		template = string(data)
	}
	builder, err := prompt.NewBuilder(template)
	if err != nil {
		return fmt.Errorf("building prompt template: %w", err)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	emitter := batch.NewEmitter(builder, cfg.Completion.Model)
	n, err := emitter.Emit(f, recs)
	if err != nil {
		return fmt.Errorf("emitting batch requests: %w", err)
	}

	log.Printf("Wrote %d batch requests to %s", n, outPath)
	return nil
}
