package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"zest/internal/config"
	"zest/internal/logsink"
)

func main() {
	var (
		serve   bool
		addr    string
		query   string
		page    int
		details bool
		like    int
		logHrs  int
		help    bool
	)

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.StringVar(&query, "query", "", "Search text for recipe titles")
	flag.StringVar(&query, "q", "", "Search text for recipe titles (short form)")
	flag.IntVar(&page, "page", 1, "Result page to show")
	flag.IntVar(&page, "p", 1, "Result page to show (short form)")
	flag.BoolVar(&details, "details", false, "Also fetch ingredients and nutrition for each result")
	flag.IntVar(&like, "like", 0, "Toggle a recipe id in the command line liked set")
	flag.IntVar(&logHrs, "logs", 0, "Print shipped logs from the last N hours")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	closeLogs, err := setupLogging(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer func() {
		_ = closeLogs.Close()
	}()

	ctx := context.Background()
	switch {
	case serve:
		err = runServer(cfg, addr)
	case logHrs > 0:
		err = runLogs(ctx, cfg, os.Stdout, time.Duration(logHrs)*time.Hour)
	case like > 0:
		err = runLike(ctx, cfg, os.Stdout, like)
	default:
		err = runSearch(ctx, cfg, os.Stdout, query, page, details)
	}
	if err != nil {
		_ = closeLogs.Close()
		log.Fatalf("Error: %v", err)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging logs JSON to stderr and, when configured, to blob storage too.
func setupLogging(ctx context.Context, cfg *config.Config) (io.Closer, error) {
	stderr := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	if !cfg.LogSinkEnabled() {
		slog.SetDefault(slog.New(stderr))
		return nopCloser{}, nil
	}

	sink, err := logsink.New(ctx, logsink.Config{
		AccountName: cfg.Azure.AccountName,
		AccountKey:  cfg.Azure.AccountKey,
		Container:   cfg.Logs.Container,
		BlobName:    cfg.Logs.BlobName,
		FlushEvery:  cfg.Logs.FlushEvery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create log sink: %w", err)
	}
	slog.SetDefault(slog.New(logsink.Fanout{stderr, sink}))
	return sink, nil
}

func showHelp() {
	fmt.Println("Zest - Recipe browser")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zest -serve [-addr :8080]")
	fmt.Println("  zest -q <text> [-p <page>] [-details]")
	fmt.Println("  zest -like <recipe id>")
	fmt.Println("  zest -logs <hours>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -serve          Run the web site")
	fmt.Println("  -addr           Address to bind in server mode")
	fmt.Println("  -query, -q      Search text for recipe titles")
	fmt.Println("  -page, -p       Result page to show (default 1)")
	fmt.Println("  -details        Fetch ingredients and nutrition for each result")
	fmt.Println("  -like           Toggle a recipe in the command line liked set")
	fmt.Println("  -logs           Print logs shipped to blob storage in the last N hours")
	fmt.Println("  -help, -h       Show this help message")
}
