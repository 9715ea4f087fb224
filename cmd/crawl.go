package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/api"
	"github.com/pdfhound/pdfhound/internal/config"
	"github.com/pdfhound/pdfhound/internal/crawler"
	"github.com/pdfhound/pdfhound/internal/detector"
	"github.com/pdfhound/pdfhound/internal/download"
	"github.com/pdfhound/pdfhound/internal/fetcher"
	"github.com/pdfhound/pdfhound/internal/logging"
	"github.com/pdfhound/pdfhound/internal/policy"
	"github.com/pdfhound/pdfhound/internal/policy/ratelimit"
	"github.com/pdfhound/pdfhound/internal/progress"
	"github.com/pdfhound/pdfhound/internal/progress/sinks"
	"github.com/pdfhound/pdfhound/internal/report"
	"github.com/pdfhound/pdfhound/internal/verifier"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a site and download the PDFs it references",
		Long: `Crawls breadth-first from the seed URL, staying on the seed's site for
page links while following PDF candidates wherever they point. Downloaded
files land in the output directory; a markdown report can be written at the
end of the run.`,
		RunE: runCrawl,
	}

	flags := cmd.Flags()
	flags.String("url", "", "seed URL to start crawling from")
	flags.String("output-dir", "", "directory for downloaded PDFs")
	flags.Int("max-depth", 0, "crawl depth limit (0 = unbounded)")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Duration("crawl-delay", 0, "minimum spacing between requests to one host")
	flags.Int64("max-file-bytes", 0, "per-file download cap in bytes (0 = unlimited)")
	flags.Bool("insecure-skip-verify", false, "disable TLS certificate validation")
	flags.Bool("no-robots", false, "ignore robots.txt")
	flags.String("mode", "", "detection mode: conservative, aggressive, or strict")
	flags.String("status-addr", "", "serve /healthz, /status, and /metrics on this address")
	flags.String("report", "", "write a markdown crawl report to this path")
	flags.String("user-agent", "", "user agent header")
	flags.Bool("dev", false, "colored console logging")

	return cmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	snapSink := sinks.NewSnapshotSink()
	hub := progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
		snapSink,
	)

	pageFetcher := fetcher.New(fetcher.Config{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		VerifyTLS:    cfg.VerifyTLS,
	}, logger.Named("fetcher"))

	manager, err := download.NewManager(download.Config{
		OutputDir:    cfg.OutputDir,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.DownloadTimeout,
		MaxFileBytes: cfg.MaxFileBytes,
		VerifyTLS:    cfg.VerifyTLS,
	}, logger.Named("download"))
	if err != nil {
		return fmt.Errorf("init download manager: %w", err)
	}

	gate := policy.NewGate(
		policy.NewRobots(cfg.RespectRobots, cfg.UserAgent, logger.Named("robots")),
		ratelimit.New(ratelimit.Config{DefaultInterval: cfg.CrawlDelay}),
		logger.Named("policy"),
	)

	mode := cfg.DetectionMode()
	eng, err := crawler.New(
		crawler.Config{SeedURL: cfg.Seed, MaxDepth: cfg.MaxDepth, Mode: mode},
		pageFetcher,
		detector.NewPipeline(mode, logger.Named("detector")),
		verifier.New(pageFetcher, mode, logger.Named("verifier")),
		manager,
		gate,
		hub,
		logger.Named("engine"),
	)
	if err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		statusSrv := api.NewServer(snapSink, eng.Stats(), registry, logger.Named("api"))
		go func() {
			if serveErr := statusSrv.Serve(ctx, cfg.StatusAddr); serveErr != nil {
				logger.Warn("status server stopped", zap.Error(serveErr))
			}
		}()
	}

	logger.Info("crawl starting",
		zap.String("run_id", eng.RunID()),
		zap.String("seed", cfg.Seed),
		zap.Int("max_depth", cfg.MaxDepth),
		zap.String("mode", string(mode)),
	)

	summary, runErr := eng.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("progress hub close failed", zap.Error(err))
	}

	printSummary(cmd, summary)

	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.ReportPath, summary); err != nil {
			logger.Warn("report write failed", zap.Error(err))
		} else {
			cmd.Printf("Report written to %s\n", cfg.ReportPath)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("crawl: %w", runErr)
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Seed, _ = flags.GetString("url")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("crawl-delay") {
		cfg.CrawlDelay, _ = flags.GetDuration("crawl-delay")
	}
	if flags.Changed("max-file-bytes") {
		cfg.MaxFileBytes, _ = flags.GetInt64("max-file-bytes")
	}
	if flags.Changed("insecure-skip-verify") {
		skip, _ := flags.GetBool("insecure-skip-verify")
		cfg.VerifyTLS = !skip
	}
	if flags.Changed("no-robots") {
		noRobots, _ := flags.GetBool("no-robots")
		cfg.RespectRobots = !noRobots
	}
	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("status-addr") {
		cfg.StatusAddr, _ = flags.GetString("status-addr")
	}
	if flags.Changed("report") {
		cfg.ReportPath, _ = flags.GetString("report")
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("dev") {
		cfg.Development, _ = flags.GetBool("dev")
	}
	return cfg, nil
}

func printSummary(cmd *cobra.Command, summary crawler.Summary) {
	cmd.Printf("\nCrawl %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	cmd.Printf("  pages discovered: %d\n", summary.Stats.PagesDiscovered)
	cmd.Printf("  pages crawled:    %d\n", summary.Stats.PagesCrawled)
	cmd.Printf("  pdfs found:       %d\n", summary.Stats.PdfsFound)
	cmd.Printf("  pdfs downloaded:  %d\n", summary.Stats.PdfsDownloaded)
	cmd.Printf("  skips:            %d\n", summary.Stats.Skips)
	cmd.Printf("  errors:           %d\n", summary.Stats.Errors)
	for _, item := range summary.Downloads {
		cmd.Printf("  saved %s (%d bytes)\n", item.Path, item.Bytes)
	}
	for _, failure := range summary.Failures {
		cmd.Printf("  failed %s: %s\n", failure.URL, failure.Reason)
	}
}
