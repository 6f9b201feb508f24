package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/markdave123-py/policyrag/internal/app"
	"github.com/markdave123-py/policyrag/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:   "ingest",
		Usage:  "Extract, chunk, embed and store policy PDFs in pgvector",
		Flags:  ingestFlags(),
		Action: ingestCommand,
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Printf("ingest failed: %v", err)
		os.Exit(1)
	}
}

func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Directory searched recursively for *.pdf (overrides PDF_DIR)",
		},
		&cli.StringFlag{
			Name:  "bucket",
			Usage: "S3 bucket to ingest from instead of a directory (overrides SOURCE_BUCKET)",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Key prefix inside --bucket (overrides SOURCE_PREFIX)",
		},
		&cli.BoolFlag{
			Name:  "skip-ingested",
			Usage: "Skip files that already have rows (overrides SKIP_INGESTED)",
		},
	}
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("dir") {
		cfg.PDFDir = c.String("dir")
		cfg.SourceBucket = ""
	}
	if c.IsSet("bucket") {
		cfg.SourceBucket = c.String("bucket")
	}
	if c.IsSet("prefix") {
		cfg.SourcePrefix = c.String("prefix")
	}
	if c.IsSet("skip-ingested") {
		cfg.SkipIngested = c.Bool("skip-ingested")
	}
}

// loadConfig validates only after the flags are applied, so --dir can stand
// in for an S3 source whose credentials are missing.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.ReadConfig()
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	application, err := app.NewApp(c.Context, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	stats, err := application.RunIngestion(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d files (%d skipped, %d via OCR): %d pages, %d chunks in %s\n",
		stats.Files, stats.Skipped, stats.OCRFiles, stats.Pages, stats.Chunks, stats.Elapsed.Round(time.Millisecond))
	return nil
}
