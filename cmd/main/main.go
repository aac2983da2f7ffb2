package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CTAG07/Drosera/pkg/directive"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Drosera %s (%s, %s)

Usage:
  %[4]s <template> <output> <context>
      Render a template file against a JSON context file.
  %[4]s -serve [-config path]
      Run the render/library API server.

Flags:
`, Version, Commit, BuildDate, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	serve := flag.Bool("serve", false, "run the API server instead of rendering")
	configPath := flag.String("config", "./config.json", "path to the server config file (serve mode)")
	flag.Usage = usage
	flag.Parse()

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serve {
		if err := runServer(*configPath, baseLogger); err != nil {
			baseLogger.Error("Server exited with an error", "error", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) != 3 {
		usage()
		os.Exit(2)
	}
	if err := renderFile(args[0], args[1], args[2], baseLogger); err != nil {
		baseLogger.Error("Render failed", "error", err)
		os.Exit(1)
	}
}

// renderFile is the one-shot CLI path: template in, context in, output out.
// Output is written incrementally, so a failed render can leave a partial
// output file behind.
func renderFile(tmplPath, outPath, ctxPath string, logger *slog.Logger) error {
	tmpl, err := directive.Load(tmplPath, directive.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, err := directive.LoadContext(ctxPath)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := tmpl.Render(out, ctx); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish output file: %w", err)
	}

	logger.Info("Render complete", "template", tmplPath, "output", outPath)
	return nil
}

// runServer hosts the API server until an OS signal shuts it down.
func runServer(configPath string, baseLogger *slog.Logger) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var logLevel slog.Level
	switch strings.ToLower(config.Server.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		baseLogger.Warn("Unknown log level in config, using info", "log_level", config.Server.LogLevel)
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	db, err := initDB(config.Server.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	server, err := NewServer(config, logger, db)
	if err != nil {
		return err
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:    config.Server.ApiAddr,
		Handler: server.apiMux,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", config.Server.ApiAddr, "version", Version)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("OS signal received, shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown was not clean: %w", err)
	}

	logger.Info("Drosera has shut down.")
	return nil
}
