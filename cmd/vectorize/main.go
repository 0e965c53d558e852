// Copyright 2026 Cobalt Ash
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cobaltash/vectorize"
	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
	"github.com/cobaltash/vectorize/engine"
)

func main() {
	app := &cli.App{
		Name:  "vectorize",
		Usage: "Local vectorization job engine and similarity index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Vectorize files into the index",
				ArgsUsage: "FILE [FILE...]",
				Action:    indexCommand,
				Flags:     append(engineFlags(), indexFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Run a similarity query against the index",
				ArgsUsage: "QUERY TEXT",
				Action:    queryCommand,
				Flags:     append(engineFlags(), queryFlags()...),
			},
			{
				Name:   "stats",
				Usage:  "Show index document count and resource usage",
				Action: statsCommand,
				Flags:  engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the index database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
			Value: 768,
		},
		&cli.Float64Flag{
			Name:  "storage-limit-mb",
			Usage: "Storage quota in MB (0 = unlimited)",
		},
	}
}

func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Chunk size in characters",
			Value: 512,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Chunk overlap in characters",
			Value: 64,
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "k",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results",
			Value:   10,
		},
		&cli.Float64Flag{
			Name:  "score-threshold",
			Usage: "Drop results scoring below this",
		},
		&cli.StringSliceFlag{
			Name:  "filter",
			Usage: "Metadata filter as key=value (repeatable)",
		},
	}
}

func openEngine(c *cli.Context) (*vectorize.Engine, error) {
	config := embed.DefaultConfig(
		embed.WithHost(c.String("embedding-host")),
		embed.WithModel(c.String("embedding-model")),
		embed.WithDimension(c.Int("dimension")),
	)
	return vectorize.New(c.String("db"),
		vectorize.WithEmbeddingConfig(config),
		vectorize.WithStorageLimit(c.Float64("storage-limit-mb")),
	)
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	eng, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer eng.Close()

	var files []core.Input
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, core.Input{
			Data: data,
			MIME: mimeForPath(path),
			Name: path,
		})
	}

	result, err := eng.IndexFiles(context.Background(), files, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Indexed %d chunks\n", len(result.Indexed))
	for _, failed := range result.Failed {
		fmt.Fprintf(os.Stderr, "Failed: %s: %s\n", failed.Name, failed.Error)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query text is required")
	}

	eng, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer eng.Close()

	filter := make(map[string]string)
	for _, pair := range c.StringSlice("filter") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filter[key] = value
	}

	result, err := eng.Query(context.Background(),
		core.Input{Text: strings.Join(c.Args().Slice(), " ")},
		core.ModalityText,
		engine.QueryOptions{
			K:              c.Int("k"),
			Filter:         filter,
			ScoreThreshold: float32(c.Float64("score-threshold")),
		})
	if err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(result.Matches))
	for i, match := range result.Matches {
		fmt.Printf("%d: %s [%0.3f] %s\n", i, match.Id, match.Score, match.Metadata["source"])
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer eng.Close()

	snapshot := eng.UsageSnapshot()
	fmt.Printf("Storage used: %.2f MB\n", snapshot.StorageUsedMB)
	if snapshot.StorageLimitMB > 0 {
		fmt.Printf("Storage limit: %.2f MB\n", snapshot.StorageLimitMB)
	}
	fmt.Printf("Memory: %.2f MB\n", snapshot.MemoryMB)
	if snapshot.Accelerator != nil {
		fmt.Printf("Accelerator: %s\n", snapshot.Accelerator.Backend)
	}
	return nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".mp4", ".mov":
		return "video/mp4"
	}
	return "text/plain"
}

func setupLogger(c *cli.Context) error {
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
