// Copyright 2025 Poiesic Systems
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
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/fileoracle"
	"github.com/poiesic/fileoracle/config"
	"github.com/poiesic/fileoracle/metrics"
	"github.com/urfave/cli/v2"
)

// cliApp holds the streams and hooks shared by every command.
type cliApp struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// oracleOptions are appended when opening the Oracle.
	oracleOptions []fileoracle.Option
	monitor       *metrics.Monitor
}

func main() {
	a := &cliApp{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := a.newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func (a *cliApp) newApp() *cli.App {
	return &cli.App{
		Name:      "fileoracle",
		Usage:     "Find files and answer questions about them",
		Reader:    a.in,
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (default ~/.config/fileoracle/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with API keys and overrides",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this file on exit",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Find the file best matching a query",
				ArgsUsage: "<query>",
				Action:    a.searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Search this root instead of the configured ones (repeatable)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of candidates to list (0 uses the config)",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Keep only candidates whose path contains this keyword",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Find relevant files and answer a question from them",
				ArgsUsage: "[query]",
				Action:    a.askCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Search this root instead of the configured ones (repeatable)",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Extract, chunk and embed files into the retrieval index",
				Action: a.indexCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory to index recursively (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "files",
						Aliases: []string{"f"},
						Usage:   "File, glob pattern or gdoc:/gsheet: reference to index (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "extensions",
						Aliases: []string{"e"},
						Usage:   "File extensions to include when walking directories",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-index files even when unchanged",
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep running and re-index files under --dir as they change",
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period before re-indexing changed files",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed every indexed chunk with a new embedding model",
				Action: a.reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to the configured host)",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Upload files to a hosted OpenAI vector store",
				Action: a.publishCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory to upload recursively (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "files",
						Aliases: []string{"f"},
						Usage:   "File or glob pattern to upload (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "extensions",
						Aliases: []string{"e"},
						Usage:   "File extensions to include when walking directories",
						Value:   cli.NewStringSlice("txt", "md", "pdf", "docx"),
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Vector store name (defaults to the configured name)",
					},
					&cli.BoolFlag{
						Name:  "update-env",
						Usage: "Write the new vector store ID into the .env file",
					},
				},
			},
			{
				Name:   "google-login",
				Usage:  "Authorize read-only access to private Google Docs and Sheets",
				Action: a.googleLoginCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code (prompted for when omitted)",
					},
				},
			},
		},
	}
}

func (a *cliApp) before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return err
	}
	if c.String("metrics-file") != "" {
		a.monitor = metrics.NewMonitor()
	}
	return nil
}

func (a *cliApp) after(c *cli.Context) error {
	if a.monitor == nil {
		return nil
	}
	if err := a.monitor.WriteTextfile(c.String("metrics-file")); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// loadConfig reads the config named by --config, or the default one, and
// applies --root overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if roots := c.StringSlice("root"); len(roots) > 0 {
		cfg.Roots = roots
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *cliApp) openOracle(cfg *config.AppConfig) (*fileoracle.Oracle, error) {
	opts := []fileoracle.Option{fileoracle.WithLogger(slog.Default())}
	if a.monitor != nil {
		opts = append(opts, fileoracle.WithMonitor(a.monitor))
	}
	opts = append(opts, a.oracleOptions...)
	return fileoracle.Open(cfg, opts...)
}

// commandContext is cancelled by SIGINT or SIGTERM.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
