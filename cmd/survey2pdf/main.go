package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/survey2pdf/internal/config"
	"github.com/a3tai/survey2pdf/internal/convert"
	cerrors "github.com/a3tai/survey2pdf/internal/errors"
	"github.com/a3tai/survey2pdf/internal/mcp"
	"github.com/a3tai/survey2pdf/internal/render"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// setupLogging configures logging based on the run mode
func setupLogging(cfg *config.Config, stderr io.Writer) {
	log.SetOutput(stderr)
	log.SetFlags(log.LstdFlags)

	switch {
	case cfg.IsDebug():
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	case cfg.IsStdioMode():
		// stdout carries the MCP protocol; keep stderr quiet unless debugging
		log.SetOutput(io.Discard)
	case cfg.LogLevel == "error":
		// failures are reported directly on stderr by run
		log.SetOutput(io.Discard)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(stdout)
			return exitOK
		}
	}

	cfg, err := config.Load(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrUsage) {
			fmt.Fprintf(stderr, "Run with --help for usage.\n")
			return exitUsage
		}
		return exitError
	}

	setupLogging(cfg, stderr)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	fonts, err := render.LoadFonts(cfg.FontRegular, cfg.FontBold)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsCLIMode() {
		return runCLIMode(ctx, cfg, convert.NewService(fonts, cfg.MaxFileSize, stdout, cfg.IsDebug()), stdout, stderr)
	}
	return runStdioMode(ctx, cfg, convert.NewService(fonts, cfg.MaxFileSize, io.Discard, cfg.IsDebug()))
}

// runCLIMode converts the configured input file
func runCLIMode(ctx context.Context, cfg *config.Config, service *convert.Service, stdout, stderr io.Writer) int {
	result, err := service.Convert(ctx, convert.ConvertRequest{
		InputPath: cfg.InputPath,
		Options:   convert.OptionsFromConfig(cfg),
	})

	if result != nil {
		fmt.Fprintf(stdout, "Done: %d written, %d failed\n", result.Written, result.Failed)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if rows := failedRows(result); rows != "" && cerrors.IsType(err, cerrors.ErrorTypeRenderFailure) {
			fmt.Fprintf(stderr, "Re-run the failed rows with --rows %s\n", rows)
		}
		return exitError
	}
	return exitOK
}

// failedRows lists the indexes of failed rows as a --rows expression
func failedRows(result *convert.RunResult) string {
	if result == nil {
		return ""
	}
	var rows []string
	for _, r := range result.Rows {
		if r.Failed() {
			rows = append(rows, strconv.Itoa(r.Index))
		}
	}
	return strings.Join(rows, ",")
}

// runStdioMode serves MCP until the parent process closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, service *convert.Service) int {
	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		log.Printf("Failed to create MCP server: %v", err)
		return exitError
	}

	if err := server.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		return exitError
	}
	return exitOK
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "survey2pdf\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
