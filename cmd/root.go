package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/config"
	"github.com/agentic-research/mjcusd/internal/linter"
	"github.com/agentic-research/mjcusd/internal/translate"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var (
	cfgFile string
	cfg     *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./mjcusd.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().String("asset-dir", "", "Directory mesh files are resolved against (default: the model's directory)")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail on warnings and unresolved references")
}

var rootCmd = &cobra.Command{
	Use:           "mjcusd",
	Short:         "Translate MuJoCo MJCF models into USD scene layers",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		log := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
		if cfg.File != "" {
			log.Debug("loaded config", "file", cfg.File)
		}
		cmd.SetContext(config.WithLogger(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// translateOptions builds the options for translating the model at path.
func translateOptions(cmd *cobra.Command, path string) translate.Options {
	return translate.Options{
		Logger: config.Logger(cmd.Context()),
		Assets: assetFS(path),
	}
}

// assetFS roots mesh lookups at the configured asset directory, else at the
// model's own directory.
func assetFS(model string) billy.Filesystem {
	dir := cfg.AssetDir
	if dir == "" {
		dir = "."
		if model != "" && model != "-" {
			dir = filepath.Dir(model)
		}
	}
	return osfs.New(dir)
}

// readModel translates the model at path, or stdin for "-".
func readModel(cmd *cobra.Command, path string) (*translate.Result, error) {
	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	res, err := translate.Read(cmd.Context(), in, translateOptions(cmd, path))
	if err != nil {
		return nil, fmt.Errorf("translate %s: %w", path, err)
	}
	return res, nil
}

// checkStrict logs lint findings, then turns warnings, lint findings and
// unresolved references into an error when strict mode is on.
func checkStrict(cmd *cobra.Command, res *translate.Result) error {
	log := config.Logger(cmd.Context())
	diags := linter.Lint(res.Store)
	for _, d := range diags {
		log.Warn("lint", "path", d.Path, "message", d.Message)
	}
	if !cfg.Strict {
		return nil
	}
	if err := res.Err(); err != nil {
		return err
	}
	if n := len(res.Warnings); n > 0 {
		return fmt.Errorf("%d warning(s) in strict mode, first: %s", n, res.Warnings[0])
	}
	if n := len(diags); n > 0 {
		return fmt.Errorf("%d lint finding(s) in strict mode, first: %s", n, diags[0])
	}
	return nil
}
