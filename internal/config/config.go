// Package config loads mjcusd settings from defaults, an optional
// mjcusd.yaml, MJCUSD_ environment variables and command-line flags.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Output formats.
const (
	FormatUSDA   = "usda"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: MJCUSD_NFS__PORT sets nfs.port.
const EnvPrefix = "MJCUSD_"

// DefaultNFSPort asks the OS for an ephemeral port.
const DefaultNFSPort = 0

var configNames = []string{"mjcusd.yaml", "mjcusd.yml"}

// Config holds every setting the commands read.
type Config struct {
	Format   string    `koanf:"format"`
	Output   string    `koanf:"output"`
	AssetDir string    `koanf:"asset_dir"`
	Strict   bool      `koanf:"strict"`
	Verbose  bool      `koanf:"verbose"`
	NFS      NFSConfig `koanf:"nfs"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// NFSConfig configures the scene filesystem server.
type NFSConfig struct {
	Port int `koanf:"port"`
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	formats := []string{FormatUSDA, FormatJSON, FormatSQLite}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(formats, ", "))
	}
	if c.Format == FormatSQLite && (c.Output == "" || c.Output == "-") {
		return fmt.Errorf("format %s needs an output file", FormatSQLite)
	}
	if c.NFS.Port < 0 || c.NFS.Port > 65535 {
		return fmt.Errorf("nfs port %d out of range", c.NFS.Port)
	}
	return nil
}

// findConfigFile returns explicit, or the first config file present in the
// working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges configuration sources. Precedence (highest to lowest):
// flags > env vars > config file > defaults. Only flags the user set
// override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"format":   FormatUSDA,
		"output":   "-",
		"strict":   false,
		"verbose":  false,
		"nfs.port": DefaultNFSPort,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "nfs_port" {
				key = "nfs.port"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = used
	cfg.Format = strings.ToLower(cfg.Format)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLogger returns the text logger the commands use: Info by default,
// Debug when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type loggerKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger retrieves the logger stored by WithLogger, or a discarding one.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
