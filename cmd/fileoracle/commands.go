package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/fileoracle/config"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/hosted"
	"github.com/poiesic/fileoracle/ingestion"
	"github.com/poiesic/fileoracle/reembed"
	"github.com/poiesic/fileoracle/search"
	"github.com/poiesic/fileoracle/watch"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func (a *cliApp) searchCommand(c *cli.Context) error {
	p := newPrinter(a.out)
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		p.println(warnColor, "Please provide a query.")
		return p.err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	oracle, err := a.openOracle(cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	ctx, cancel := commandContext(c)
	defer cancel()

	var opts []search.SearchOption
	if n := c.Int("limit"); n > 0 {
		opts = append(opts, search.WithResultLimit(n))
	}
	if keyword := c.String("filter"); keyword != "" {
		opts = append(opts, search.WithFilterKeyword(keyword))
	}

	report, err := oracle.Search(ctx, query, opts...)
	printReport(p, report, err)
	return p.err
}

func printReport(p *printer, report *core.SearchReport, err error) {
	if err != nil && !errors.Is(err, search.ErrExhausted) {
		p.printf(errColor, "Search failed: %v\n", err)
		return
	}
	if report == nil || len(report.Candidates) == 0 {
		p.println(warnColor, "No files found matching your query.")
		return
	}
	if report.BestFile != "" {
		p.printf(headerColor, "Best match: ")
		p.println(okColor, report.BestFile)
	}
	p.printf(nil, "\nCandidates (%d):\n", len(report.Candidates))
	for _, candidate := range report.Candidates {
		p.printf(nil, "  %s\n", candidate)
	}
	if report.FinalQuery != report.Query {
		p.printf(warnColor, "\nFound after %d attempts with refined query %q\n", report.Attempts, report.FinalQuery)
	}
}

func (a *cliApp) askCommand(c *cli.Context) error {
	p := newPrinter(a.out)
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		p.println(headerColor, "Welcome to FileOracle!")
		p.printf(nil, "Enter your query: ")
		if p.err != nil {
			return p.err
		}
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		query = strings.TrimSpace(line)
	}
	if query == "" {
		p.println(warnColor, "Please provide a query.")
		return p.err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	oracle, err := a.openOracle(cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := oracle.Ask(ctx, query)
	if err != nil {
		p.printf(errColor, "Could not answer: %v\n", err)
		return p.err
	}
	if resp.Report.BestFile != "" {
		p.printf(headerColor, "Extracted text from: %s\n\n", resp.Report.BestFile)
	}
	if a.monitor != nil && resp.Indexed != nil {
		a.monitor.ObserveIngestion(resp.Indexed)
	}
	p.println(nil, resp.String())
	return p.err
}

func (a *cliApp) indexCommand(c *cli.Context) error {
	dirs, patterns := c.StringSlice("dir"), c.StringSlice("files")
	if len(dirs) == 0 && len(patterns) == 0 {
		return errors.New("nothing to index: pass --dir or --files")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	limits, err := cfg.Limits()
	if err != nil {
		return err
	}
	extensions := c.StringSlice("extensions")
	if len(extensions) == 0 {
		extensions = cfg.Index.Extensions
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	files, err := ingestion.ResolveFiles(ctx, dirs, patterns, extensions, limits)
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}

	oracle, err := a.openOracle(cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	p := newPrinter(a.out)
	bar := newProgressBar(a.errOut, len(files), "indexing")
	report, err := oracle.Index(ctx, files, &ingestion.IngestOptions{
		Force: c.Bool("force"),
		Progress: func(ingestion.FileResult) {
			_ = bar.Add(1)
		},
	})
	_ = bar.Finish()
	if a.monitor != nil {
		a.monitor.ObserveIngestion(report)
	}
	printIngestion(p, report)
	if err != nil {
		return fmt.Errorf("indexing interrupted: %w", err)
	}

	if !c.Bool("watch") {
		return p.err
	}
	if len(dirs) == 0 {
		p.println(warnColor, "--watch needs at least one --dir")
		return p.err
	}

	w, err := watch.New(oracle.Pipeline(),
		watch.WithExtensions(extensions),
		watch.WithLimits(limits),
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithLogger(slog.Default()),
		watch.WithResultHandler(func(result ingestion.FileResult) {
			if a.monitor != nil {
				a.monitor.ObserveFile(result)
			}
			printFileResult(p, result)
		}),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	p.printf(headerColor, "Watching %d directories, press Ctrl-C to stop\n", len(dirs))
	if err := w.Run(ctx); err != nil {
		return err
	}
	return p.err
}

func printIngestion(p *printer, report *ingestion.Report) {
	if report == nil {
		return
	}
	for _, result := range report.Results {
		if result.Status == ingestion.StatusFailed {
			printFileResult(p, result)
		}
	}
	p.printf(okColor, "Indexed %d files (%d chunks)", report.Indexed, report.Chunks)
	p.printf(nil, ", %d unchanged, %d unsupported, %d empty", report.Unchanged, report.Unsupported, report.Empty)
	if report.Failed > 0 {
		p.printf(errColor, ", %d failed", report.Failed)
	}
	p.printf(nil, "\n")
}

func printFileResult(p *printer, result ingestion.FileResult) {
	switch result.Status {
	case ingestion.StatusFailed:
		p.printf(errColor, "failed  ")
		p.printf(nil, "%s: %v\n", result.Path, result.Err)
	case ingestion.StatusIndexed:
		p.printf(okColor, "indexed ")
		p.printf(nil, "%s (%d chunks)\n", result.Path, result.Chunks)
	default:
		p.printf(warnColor, "%-8s", result.Status.String())
		p.printf(nil, "%s\n", result.Path)
	}
}

func (a *cliApp) reembedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.AI.EmbeddingModel = c.String("embedding-model")
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if err := cfg.AIConfig().Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: 100,
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	oracle, err := a.openOracle(cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	ctx, cancel := commandContext(c)
	defer cancel()

	p := newPrinter(a.out)
	p.printf(nil, "Index: %s\n", cfg.Index.Path)
	p.printf(nil, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	p.printf(nil, "Embedding model: %s\n\n", cfg.AI.EmbeddingModel)

	reembedder := oracle.Reembedder(reembedConfig, a.errOut, newBarReporter(a.errOut, "reembedding"))
	count, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	p.printf(okColor, "Reembedded %d chunks\n", count)
	p.printf(warnColor, "Set ai.embedding_model to %q in your config to query the new vectors\n", cfg.AI.EmbeddingModel)
	return p.err
}

func (a *cliApp) publishCommand(c *cli.Context) error {
	dirs, patterns := c.StringSlice("dir"), c.StringSlice("files")
	if len(dirs) == 0 && len(patterns) == 0 {
		return errors.New("nothing to publish: pass --dir or --files")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	limits, err := cfg.Limits()
	if err != nil {
		return err
	}

	opts := []hosted.Option{hosted.WithLogger(slog.Default())}
	if cfg.Hosted.BaseURL != "" {
		opts = append(opts, hosted.WithBaseURL(cfg.Hosted.BaseURL))
	}
	publisher, err := hosted.NewPublisher(cfg.Hosted.APIKey, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	files, err := ingestion.ResolveFiles(ctx, dirs, patterns, c.StringSlice("extensions"), limits)
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}
	name := c.String("name")
	if name == "" {
		name = cfg.Hosted.StoreName
	}

	p := newPrinter(a.out)
	result, err := publisher.Publish(ctx, files, name)
	if result != nil {
		for _, upload := range result.Uploads {
			if upload.Err != nil {
				p.printf(errColor, "failed   ")
				p.printf(nil, "%s: %v\n", upload.Path, upload.Err)
				continue
			}
			p.printf(okColor, "uploaded ")
			p.printf(nil, "%s (%s)\n", upload.Path, upload.FileID)
		}
	}
	if err != nil {
		return fmt.Errorf("publishing failed: %w", err)
	}
	p.printf(okColor, "Created vector store %q with ID %s (%d of %d files)\n",
		result.Name, result.VectorStoreID, result.Uploaded(), len(result.Uploads))

	if c.Bool("update-env") {
		envFile := c.String("env-file")
		if err := hosted.UpdateEnvFile(envFile, hosted.EnvVectorStoreID, result.VectorStoreID); err != nil {
			return err
		}
		p.printf(nil, "Wrote %s to %s\n", hosted.EnvVectorStoreID, envFile)
	}
	return p.err
}

func (a *cliApp) googleLoginCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Google.CredentialsFile == "" {
		return fmt.Errorf("no google credentials configured: set google.credentials_file or %s", config.EnvGoogleCreds)
	}
	oauthCfg, err := extract.GoogleOAuthConfig(cfg.Google.CredentialsFile)
	if err != nil {
		return err
	}

	p := newPrinter(a.out)
	code := strings.TrimSpace(c.String("code"))
	if code == "" {
		p.println(headerColor, "Open this URL in a browser and authorize FileOracle:")
		p.println(nil, oauthCfg.AuthCodeURL("fileoracle", oauth2.AccessTypeOffline))
		p.printf(nil, "Enter the authorization code: ")
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		return errors.New("no authorization code entered")
	}

	ctx, cancel := commandContext(c)
	defer cancel()
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := extract.SaveGoogleToken(cfg.Google.TokenFile, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	p.printf(okColor, "Saved Google token to %s\n", cfg.Google.TokenFile)
	return p.err
}
