package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/survey2pdf/internal/survey"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Default values
	DefaultOutputDir   = "out_pdfs"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "SURVEY2PDF"
)

// ErrUsage marks errors caused by bad command line usage
var ErrUsage = errors.New("usage error")

// Config holds all configuration for a conversion run
type Config struct {
	// Run mode
	Mode string // "cli" or "stdio"

	// Input and output
	InputPath string
	OutputDir string
	Rows      string
	Sheet     string

	// Document content
	TitleColumns     []string
	Exclude          []string
	SkipSystemFields bool
	RepeatLabel      string
	FontRegular      string
	FontBold         string

	// File naming
	LowercaseSlugs bool
	MaxTitleLength int

	// Failure policy
	ContinueOnError bool
	Verify          bool

	// MCP sandbox root (stdio mode)
	Directory string

	// Application configuration
	ConfigFile  string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:           ModeCLI,
		OutputDir:      DefaultOutputDir,
		TitleColumns:   append([]string(nil), survey.DefaultTitleColumns...),
		RepeatLabel:    survey.DefaultRepeatLabel,
		MaxTitleLength: survey.DefaultMaxTitleLength,
		Verify:         true,
		Directory:      currentDir,
		Version:        "1.0.0",
		ServerName:     "survey2pdf",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
	}
}

// Load parses args (without the program name), environment variables and
// an optional config file into a validated configuration. Precedence is
// flags, then environment, then config file, then defaults. Returns
// pflag.ErrHelp when help was requested.
func Load(args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet(cfg.ServerName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs, stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	bindFlagsToViper(v, fs)

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	populateConfigFromViper(v, cfg)

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.InputPath = fs.Arg(0)
	default:
		return nil, fmt.Errorf("%w: expected one input file, got %d arguments", ErrUsage, fs.NArg())
	}

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %v", ErrUsage, err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("outdir", cfg.OutputDir)
	v.SetDefault("rows", cfg.Rows)
	v.SetDefault("sheet", cfg.Sheet)
	v.SetDefault("title-columns", cfg.TitleColumns)
	v.SetDefault("exclude", cfg.Exclude)
	v.SetDefault("skip-system-fields", cfg.SkipSystemFields)
	v.SetDefault("repeat-label", cfg.RepeatLabel)
	v.SetDefault("font-regular", cfg.FontRegular)
	v.SetDefault("font-bold", cfg.FontBold)
	v.SetDefault("lowercase-slugs", cfg.LowercaseSlugs)
	v.SetDefault("max-title-length", cfg.MaxTitleLength)
	v.SetDefault("continue-on-error", cfg.ContinueOnError)
	v.SetDefault("verify", cfg.Verify)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringP("outdir", "o", cfg.OutputDir, "Output directory for the generated PDFs (created if missing)")
	fs.String("rows", cfg.Rows, "Row indexes to render, e.g. '0,2,5-7' (default: all rows)")
	fs.String("sheet", cfg.Sheet, "Worksheet to read from an XLSX input (default: first sheet)")
	fs.StringSlice("title-columns", cfg.TitleColumns, "Columns tried in order for the document title and file name")
	fs.StringSlice("exclude", cfg.Exclude, "Columns or question groups never rendered")
	fs.Bool("skip-system-fields", cfg.SkipSystemFields, "Exclude Survey123 system columns (ObjectID, GlobalID, ...)")
	fs.String("repeat-label", cfg.RepeatLabel, "Label prefix for repeated question members (File 1, File 2, ...)")
	fs.String("font-regular", cfg.FontRegular, "TrueType font for answers (default: embedded Go Regular)")
	fs.String("font-bold", cfg.FontBold, "TrueType font for questions and headings (default: embedded Go Bold)")
	fs.Bool("lowercase-slugs", cfg.LowercaseSlugs, "Lowercase generated file names")
	fs.Int("max-title-length", cfg.MaxTitleLength, "Maximum file name length in characters")
	fs.Bool("continue-on-error", cfg.ContinueOnError, "Log failed rows and keep going instead of aborting the run")
	fs.Bool("verify", cfg.Verify, "Validate every written PDF")
	fs.String("mode", cfg.Mode, "Run mode: 'cli' converts a file, 'stdio' serves MCP over standard I/O")
	fs.String("dir", cfg.Directory, "Directory MCP tools are confined to (stdio mode only)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input file size in bytes")
	fs.String("config", "", "Configuration file (YAML, TOML or JSON)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, w io.Writer) {
	fs.Usage = func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(w, "Usage of %s:\n", name)
		fmt.Fprintf(w, "\nsurvey2pdf - Generate one PDF per response from a Survey123 CSV or XLSX export\n\n")
		fmt.Fprintf(w, "  %s [options] <input.csv|input.xlsx>\n\n", name)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s export.csv                          # all rows into ./out_pdfs\n", name)
		fmt.Fprintf(w, "  %s export.csv -o pdfs --rows 0,2,5-7   # selected rows\n", name)
		fmt.Fprintf(w, "  %s --mode=stdio --dir=/data/surveys    # MCP server\n", name)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  %s_<OPTION>  Any option, upper case with '-' as '_' (e.g. %s_OUTDIR)\n", envPrefix, envPrefix)
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.OutputDir = v.GetString("outdir")
	cfg.Rows = v.GetString("rows")
	cfg.Sheet = v.GetString("sheet")
	cfg.TitleColumns = splitList(v.GetStringSlice("title-columns"))
	cfg.Exclude = splitList(v.GetStringSlice("exclude"))
	cfg.SkipSystemFields = v.GetBool("skip-system-fields")
	cfg.RepeatLabel = v.GetString("repeat-label")
	cfg.FontRegular = v.GetString("font-regular")
	cfg.FontBold = v.GetString("font-bold")
	cfg.LowercaseSlugs = v.GetBool("lowercase-slugs")
	cfg.MaxTitleLength = v.GetInt("max-title-length")
	cfg.ContinueOnError = v.GetBool("continue-on-error")
	cfg.Verify = v.GetBool("verify")
	cfg.Directory = v.GetString("dir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.ConfigFile = v.GetString("config")
}

// splitList flattens comma separated entries, which is how list values
// arrive from environment variables.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	if c.Mode == ModeCLI && c.InputPath == "" {
		return errors.New("input file is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	if c.Mode == ModeStdio && c.Directory == "" {
		return errors.New("directory cannot be empty in stdio mode")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.MaxTitleLength <= 0 {
		return errors.New("maximum title length must be positive")
	}
	if c.MaxTitleLength > survey.MaxSlugBytes {
		return fmt.Errorf("maximum title length must be at most %d", survey.MaxSlugBytes)
	}

	if c.FontBold != "" && c.FontRegular == "" {
		return errors.New("font-bold requires font-regular")
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

// ExcludedColumns returns the configured exclusions, plus the Survey123
// system columns when SkipSystemFields is set.
func (c *Config) ExcludedColumns() []string {
	out := append([]string(nil), c.Exclude...)
	if c.SkipSystemFields {
		out = append(out, survey.Survey123SystemFields...)
	}
	return out
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, InputPath: %s, OutputDir: %s, Rows: %q, TitleColumns: %v, "+
		"ContinueOnError: %t, Verify: %t, Directory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.InputPath, c.OutputDir, c.Rows, c.TitleColumns,
		c.ContinueOnError, c.Verify, c.Directory, c.LogLevel, c.MaxFileSize)
}

// IsCLIMode returns true when converting a single input from the command line
func (c *Config) IsCLIMode() bool {
	return c.Mode == ModeCLI
}

// IsStdioMode returns true if the MCP server runs over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
