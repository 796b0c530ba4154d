// Command normalize runs the full product normalization pipeline: it
// loads scraped product records, extracts deterministic fields, asks
// the configured model for a normalized object per record, and writes
// one CSV row per input record.
// Usage: go run ./cmd/normalize -input data/raw -output products.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"prodnorm/internal/cache"
	"prodnorm/internal/completion"
	_ "prodnorm/internal/completion/anthropic"
	_ "prodnorm/internal/completion/openai"
	"prodnorm/internal/config"
	"prodnorm/internal/csvexport"
	"prodnorm/internal/domain"
	"prodnorm/internal/extract"
	"prodnorm/internal/notify/noop"
	"prodnorm/internal/notify/ses"
	"prodnorm/internal/pipeline"
	"prodnorm/internal/port"
	"prodnorm/internal/prompt"
	"prodnorm/internal/records"
	"prodnorm/internal/schema"
	"prodnorm/internal/storage/s3"
)

var (
	inputDir     = flag.String("input", "", "Input directory of raw JSON records (default from config)")
	outputPath   = flag.String("output", "", "Output CSV path (default from config)")
	templatePath = flag.String("template", "", "Schema template file, .csv or .xlsx (default from config)")
	limitRecords = flag.Int("limit", 0, "Optional limit for testing (0 = all records)")
	dryRun       = flag.Bool("dry-run", false, "Load and extract only; report counts without calling the model")
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
	if *outputPath != "" {
		cfg.Output.CSVPath = *outputPath
	}
	if *templatePath != "" {
		cfg.Output.TemplatePath = *templatePath
	}

	cols, err := loadSchema(cfg.Output.TemplatePath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if cfg.S3.FetchKey != "" {
		if err := fetchFromS3(ctx, cfg); err != nil {
			return fmt.Errorf("fetching raw dump from s3: %w", err)
		}
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

	if *dryRun {
		log.Printf("Dry run: %d records, %d schema columns, stopping before any model call",
			len(recs), len(cols))
		return nil
	}

	template, err := promptTemplate(cfg.Prompt.TemplatePath)
	if err != nil {
		return err
	}
	builder, err := prompt.NewBuilder(template)
	if err != nil {
		return fmt.Errorf("building prompt template: %w", err)
	}

	client, err := completion.NewClient(&cfg.Completion)
	if err != nil {
		return err
	}

	var respCache port.ResponseCache
	if cfg.Cache.Path != "" {
		respCache, err = cache.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer func() { _ = respCache.Close() }()
	}

	sink, err := csvexport.OpenFile(cfg.Output.CSVPath, cols)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(client, respCache, sink, builder, cols, pipeline.Options{
		Concurrency:   cfg.Pipeline.Concurrency,
		MaxRetries:    cfg.Pipeline.MaxRetries,
		ProgressEvery: cfg.Pipeline.ProgressEvery,
		CallTimeout:   time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
		Model:         cfg.Completion.Model,
	})

	summary, runErr := runner.Run(ctx, recs)
	if closeErr := sink.Close(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("closing output csv: %w", closeErr)
	}
	if runErr != nil {
		return runErr
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		log.Printf("WARN: building notifier: %v", err)
	} else if err := notifier.NotifyRunComplete(ctx, summary); err != nil {
		log.Printf("WARN: notifying run completion: %v", err)
	}

	if cfg.S3.UploadPrefix != "" {
		if err := uploadToS3(ctx, cfg, summary); err != nil {
			log.Printf("ERROR: uploading output to s3: %v", err)
		}
	}

	return nil
}

func loadSchema(templatePath string) (schema.Schema, error) {
	if templatePath == "" {
		return schema.Default(), nil
	}
	return schema.Load(templatePath)
}

func promptTemplate(templatePath string) (string, error) {
	if templatePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return string(data), nil
}

func buildNotifier(cfg *config.Config) (port.RunNotifier, error) {
	switch cfg.Notify.Provider {
	case "ses":
		return ses.NewSESNotifier(cfg.Notify.Region, cfg.Notify.FromAddress, cfg.Notify.ToAddress)
	default:
		return noop.NewNoopNotifier(), nil
	}
}

func fetchFromS3(ctx context.Context, cfg *config.Config) error {
	store, err := s3.NewS3Client(&cfg.S3)
	if err != nil {
		return err
	}
	data, err := store.Download(ctx, cfg.S3.Bucket, cfg.S3.FetchKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Input.Dir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(cfg.Input.Dir, filepath.Base(cfg.S3.FetchKey))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	log.Printf("Fetched s3://%s/%s to %s (%d bytes)", cfg.S3.Bucket, cfg.S3.FetchKey, dest, len(data))
	return nil
}

func uploadToS3(ctx context.Context, cfg *config.Config, summary domain.RunSummary) error {
	store, err := s3.NewS3Client(&cfg.S3)
	if err != nil {
		return err
	}
	f, err := os.Open(cfg.Output.CSVPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	key := path.Join(cfg.S3.UploadPrefix, csvexport.BuildFilename("products_"+summary.RunID.String()))
	out, err := store.Upload(ctx, port.UploadInput{
		Bucket:      cfg.S3.Bucket,
		Key:         key,
		Body:        f,
		ContentType: "text/csv",
		Size:        info.Size(),
	})
	if err != nil {
		return err
	}
	log.Printf("Uploaded output CSV to %s", out.Location)
	return nil
}
