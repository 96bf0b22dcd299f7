package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultRenderScale = 1.5
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	MaxRenderScale     = 8.0
)

// Config holds all configuration for the docflow flatten tool
type Config struct {
	// Input/output paths
	InputPath       string
	OutputPath      string
	AnnotationsPath string
	PositionsPath   string

	// Rendering configuration
	RenderScale float64 // canvas pixels per PDF point

	// Application configuration
	Version     string
	ToolName    string
	LogLevel    string
	MaxFileSize int64 // Maximum source PDF size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RenderScale: DefaultRenderScale,
		Version:     "1.0.0",
		ToolName:    "docflow",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.InputPath, &cfg.OutputPath, &cfg.AnnotationsPath, &cfg.PositionsPath} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("DOCFLOW")
	viper.AutomaticEnv()

	viper.SetDefault("in", cfg.InputPath)
	viper.SetDefault("out", cfg.OutputPath)
	viper.SetDefault("annotations", cfg.AnnotationsPath)
	viper.SetDefault("positions", cfg.PositionsPath)
	viper.SetDefault("scale", cfg.RenderScale)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("in", cfg.InputPath, "Source PDF document")
	pflag.String("out", cfg.OutputPath, "Output path for the flattened PDF")
	pflag.String("annotations", cfg.AnnotationsPath, "Annotation store JSON produced by the markup editor")
	pflag.String("positions", cfg.PositionsPath, "Signature positions JSON (optional)")
	pflag.Float64("scale", cfg.RenderScale, "Render scale the annotations were drawn at (pixels per point)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum source PDF size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("in", pflag.Lookup("in"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("annotations", pflag.Lookup("annotations"))
	_ = viper.BindPFlag("positions", pflag.Lookup("positions"))
	_ = viper.BindPFlag("scale", pflag.Lookup("scale"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ndocflow - flatten document markup and signer stamps into a PDF\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --in=memo.pdf --annotations=memo.markup.json --out=memo.flat.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --in=memo.pdf --annotations=memo.markup.json --positions=memo.signers.json --out=memo.signed.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_IN           Source PDF document\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_OUT          Output path\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_ANNOTATIONS  Annotation store JSON\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_POSITIONS    Signature positions JSON\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_SCALE        Render scale\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  DOCFLOW_MAXFILESIZE  Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.InputPath = viper.GetString("in")
	cfg.OutputPath = viper.GetString("out")
	cfg.AnnotationsPath = viper.GetString("annotations")
	cfg.PositionsPath = viper.GetString("positions")
	cfg.RenderScale = viper.GetFloat64("scale")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input PDF path cannot be empty")
	}
	if c.OutputPath == "" {
		return errors.New("output path cannot be empty")
	}
	if c.AnnotationsPath == "" && c.PositionsPath == "" {
		return errors.New("at least one of annotations or positions must be provided")
	}

	if c.RenderScale <= 0 || c.RenderScale > MaxRenderScale {
		return fmt.Errorf("render scale must be in (0, %g], got %g", MaxRenderScale, c.RenderScale)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{In: %s, Out: %s, Annotations: %s, Positions: %s, Scale: %g, LogLevel: %s, MaxFileSize: %d}",
		c.InputPath, c.OutputPath, c.AnnotationsPath, c.PositionsPath, c.RenderScale, c.LogLevel, c.MaxFileSize)
}
