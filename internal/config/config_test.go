package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", FormatUSDA, "")
	fs.StringP("output", "o", "-", "")
	fs.String("asset-dir", "", "")
	fs.Bool("strict", false, "")
	fs.BoolP("verbose", "v", false, "")
	fs.Int("nfs-port", DefaultNFSPort, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatUSDA, cfg.Format)
	assert.Equal(t, "-", cfg.Output)
	assert.False(t, cfg.Strict)
	assert.Equal(t, DefaultNFSPort, cfg.NFS.Port)
	assert.Empty(t, cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mjcusd.yaml"), []byte(`
format: json
asset_dir: /models
strict: true
nfs:
  port: 2049
`), 0o644))

	t.Run("file", func(t *testing.T) {
		cfg, err := Load("", newFlags())
		require.NoError(t, err)
		assert.Equal(t, "mjcusd.yaml", cfg.File)
		assert.Equal(t, FormatJSON, cfg.Format)
		assert.Equal(t, "/models", cfg.AssetDir)
		assert.True(t, cfg.Strict)
		assert.Equal(t, 2049, cfg.NFS.Port)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("MJCUSD_ASSET_DIR", "/env/models")
		t.Setenv("MJCUSD_NFS__PORT", "3049")
		cfg, err := Load("", newFlags())
		require.NoError(t, err)
		assert.Equal(t, "/env/models", cfg.AssetDir)
		assert.Equal(t, 3049, cfg.NFS.Port)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("MJCUSD_ASSET_DIR", "/env/models")
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--asset-dir", "/flag/models", "--nfs-port", "4049", "--format", "USDA"}))
		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "/flag/models", cfg.AssetDir)
		assert.Equal(t, 4049, cfg.NFS.Port)
		assert.Equal(t, FormatUSDA, cfg.Format)
		assert.True(t, cfg.Strict, "unset flags keep lower layers")
	})
}

func TestLoadExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: true\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.File)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{name: "usda to stdout", cfg: Config{Format: FormatUSDA, Output: "-"}},
		{name: "sqlite to file", cfg: Config{Format: FormatSQLite, Output: "scene.db"}},
		{name: "unknown format", cfg: Config{Format: "usdc"}, errSubstr: "unknown format"},
		{name: "sqlite to stdout", cfg: Config{Format: FormatSQLite, Output: "-"}, errSubstr: "needs an output file"},
		{name: "bad port", cfg: Config{Format: FormatJSON, NFS: NFSConfig{Port: 70000}}, errSubstr: "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	assert.NotNil(t, Logger(context.Background()))
	l := NewLogger(os.Stderr, true)
	assert.Same(t, l, Logger(WithLogger(context.Background(), l)))
}
