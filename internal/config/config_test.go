package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.SourceDir)
	assert.Equal(t, ".moon", cfg.Extension)
	assert.False(t, cfg.Silent)
	require.NotNil(t, cfg.Cache)
	assert.True(t, cfg.Cache.Enabled)
	assert.NotNil(t, cfg.Modifiers)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
sourceDir: views
outDir: dist
extension: tpl
silent: true
modifiers:
  esc: "if(event.keyCode !== 27) {return null;};"
exclude:
  - Math
  - console
cache:
  enabled: false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "views", cfg.SourceDir)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, ".tpl", cfg.Extension)
	assert.True(t, cfg.Silent)
	assert.Equal(t, "if(event.keyCode !== 27) {return null;};", cfg.Modifiers["esc"])
	assert.Equal(t, []string{"Math", "console"}, cfg.Exclude)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ".lune/cache", cfg.Cache.Dir)
}

func TestLoad_CacheBlockKeepsDefaults(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantEnabled bool
		wantDir     string
	}{
		{name: "dir only", content: "cache:\n  dir: tmp/lune\n", wantEnabled: true, wantDir: "tmp/lune"},
		{name: "empty block", content: "cache: {}\n", wantEnabled: true, wantDir: ".lune/cache"},
		{name: "explicit disable", content: "cache:\n  enabled: false\n", wantEnabled: false, wantDir: ".lune/cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			cfg, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnabled, cfg.Cache.Enabled)
			assert.Equal(t, tt.wantDir, cfg.Cache.Dir)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "sourceDir: [unterminated")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "silent: false\n")

	t.Setenv("LUNE_SILENT", "1")
	t.Setenv("LUNE_CACHE", "false")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Silent)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_EnvInvalid(t *testing.T) {
	t.Setenv("LUNE_SILENT", "sometimes")

	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "LUNE_SILENT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bare dot extension", func(c *Config) { c.Extension = "." }, true},
		{"dotted modifier", func(c *Config) { c.Modifiers["a.b"] = "" }, true},
		{"blank exclude", func(c *Config) { c.Exclude = []string{" "} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SourceDir = "src"
	cfg.Exclude = []string{"window"}

	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "src", loaded.SourceDir)
	assert.Equal(t, []string{"window"}, loaded.Exclude)
}

func TestCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/proj", ".lune/cache"), cfg.CacheDir("/proj"))

	cfg.Cache.Dir = "/var/cache/lune"
	assert.Equal(t, "/var/cache/lune", cfg.CacheDir("/proj"))
}
