// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/lexindex"
	"github.com/poiesic/lexindex/config"
	"github.com/poiesic/lexindex/convert/pdf"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/fetch"
	"github.com/poiesic/lexindex/ingestion"
	"github.com/poiesic/lexindex/manifest"
	"github.com/poiesic/lexindex/search"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "lexindex",
		Usage: "Legal document indexing and semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "lexindex.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Download, chunk, embed and store the documents of a manifest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "manifest",
						Aliases:  []string{"m"},
						Usage:    "Path to the Excel manifest (column G holds document URLs)",
						Required: true,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the indexed corpus",
				Action:    searchCommand,
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of matches to return",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum cosine similarity in [0, 1]",
						Value:   float64(search.DefaultThreshold),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Read the manifest
	entries, err := manifest.NewReader().Read(c.String("manifest"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("manifest has no document links")
	}

	// Download the files
	downloader, err := fetch.NewDownloader(cfg.Download.Dir,
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Download.Timeout}),
		fetch.WithMaxRetries(cfg.Download.MaxRetries),
		fetch.WithRetryBaseDelay(cfg.Download.RetryBaseDelay))
	if err != nil {
		return err
	}

	requests := make([]fetch.Request, len(entries))
	for i, e := range entries {
		requests[i] = fetch.Request{
			URL:      e.URL,
			Filename: e.Filename,
			RowIndex: e.RowIndex,
			Metadata: e.Metadata,
		}
	}

	result, err := downloader.DownloadAll(ctx, requests)
	if err != nil {
		return err
	}
	if len(result.Successful) == 0 {
		return fmt.Errorf("no documents could be downloaded (%d failed)", len(result.Failed))
	}

	// Open the index and process the downloads
	ix, err := lexindex.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer ix.Close()

	if err := ix.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	batcher := ix.NewBatcher()
	if err := batcher.VerifyDimension(ctx); err != nil {
		return fmt.Errorf("embedding backend check failed: %w", err)
	}

	progress := ingestion.NewProgressTracker(os.Stderr, len(result.Successful), cfg.Pipeline.ReportInterval)

	converter := pdf.NewConverter(
		pdf.WithPreserveStructure(cfg.Chunking.PreserveStructure))

	pipelineOpts := []ingestion.Option{
		ingestion.WithDocumentTimeout(cfg.Pipeline.DocumentTimeout),
		ingestion.WithProgress(progress),
	}
	if cfg.Pipeline.Workers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Pipeline.Workers))
	}

	pipeline, err := ix.NewPipeline(converter, pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	sources := make([]ingestion.Source, len(result.Successful))
	for i, dl := range result.Successful {
		metadata := map[string]string{"checksum": dl.Checksum}
		for k, v := range dl.Metadata {
			metadata[k] = v
		}
		sources[i] = ingestion.Source{
			Path:         dl.Path,
			Filename:     dl.Filename,
			SourceURL:    dl.URL,
			FileSize:     dl.Size,
			DownloadDate: time.Now().UTC(),
			Metadata:     metadata,
		}
	}

	summary, err := pipeline.Run(ctx, sources)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Documents: %d processed, %d succeeded, %d failed (%d download failures)\n",
		summary.Total, summary.Succeeded, summary.Failed, len(result.Failed))
	fmt.Fprintf(os.Stderr, "Chunks indexed: %d\n", summary.Chunks)

	for _, r := range summary.Results {
		if r.Status != core.StatusSuccess {
			fmt.Fprintf(os.Stderr, "  failed: %s: %s\n", r.Filename, r.Err)
		}
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	threshold := c.Float64("threshold")
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be in [0, 1], got %v", threshold)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ix, err := lexindex.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer ix.Close()

	searcher, err := ix.NewSearcher()
	if err != nil {
		return err
	}

	matches, err := searcher.FindSimilar(ctx, query, c.Int("limit"), float32(threshold))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, m := range matches {
		fmt.Printf("%d. [%.3f] document %d, chunk %d\n", i+1, m.Similarity, m.DocumentId, m.ChunkIndex)
		fmt.Printf("   %s\n\n", m.Content)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
