package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sarabun/docflow/internal/annotation"
	"github.com/sarabun/docflow/internal/config"
	"github.com/sarabun/docflow/internal/raster"
	"github.com/sarabun/docflow/internal/signature"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the configured level
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}
	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Cancel the flatten on SIGINT/SIGTERM so a half-written output never
	// replaces the target file.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Flatten failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	source, err := readSource(cfg)
	if err != nil {
		return err
	}

	// Opening the source validates it and fixes the page coordinate space.
	src, err := raster.Open(source, cfg.RenderScale)
	if err != nil {
		return err
	}
	if cfg.IsDebug() {
		log.Printf("Source document: %d pages at scale %g", src.PageCount(), src.Scale())
	}

	exporter, err := annotation.NewExporter(cfg.RenderScale)
	if err != nil {
		return err
	}

	result := source
	if cfg.AnnotationsPath != "" {
		result, err = flattenMarkup(ctx, exporter, src, result, cfg.AnnotationsPath)
		if err != nil {
			return err
		}
	}
	if cfg.PositionsPath != "" {
		result, err = stampSigners(ctx, exporter, src, result, cfg.PositionsPath)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(cfg.OutputPath, result, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Printf("Wrote %s (%d bytes)", cfg.OutputPath, len(result))
	return nil
}

func readSource(cfg *config.Config) ([]byte, error) {
	if err := raster.ValidateSourceFile(cfg.InputPath, cfg.MaxFileSize); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read input: %w", err)
	}
	return data, nil
}

func flattenMarkup(ctx context.Context, exporter *annotation.Exporter, src *raster.Source, source []byte, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read annotation store: %w", err)
	}
	totalPages, pages, err := annotation.DecodeStoreFile(data)
	if err != nil {
		return nil, err
	}
	if totalPages != 0 && totalPages != src.PageCount() {
		log.Printf("annotation store covers %d pages, document has %d", totalPages, src.PageCount())
	}
	for page := range pages {
		if page < 1 || page > src.PageCount() {
			return nil, fmt.Errorf("annotation store references page %d outside [1, %d]", page, src.PageCount())
		}
	}
	return exporter.Export(ctx, source, pages)
}

func stampSigners(ctx context.Context, exporter *annotation.Exporter, src *raster.Source, source []byte, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read signature positions: %w", err)
	}
	positions, err := signature.DecodePositions(data)
	if err != nil {
		return nil, err
	}
	snaps, err := signature.StampSnapshots(ctx, positions, src)
	if err != nil {
		return nil, err
	}
	return exporter.Export(ctx, source, snaps)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("docflow\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
