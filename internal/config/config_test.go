package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Title = "Household"
	cfg.CSV.DateLayouts = []string{"2006-01-02", "02/01/2006"}
	cfg.Report.TopSlices = 5

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Personal Finance Data", cfg.Title)
	assert.Equal(t, 50, cfg.History.Depth)
	assert.Equal(t, []string{"2006-01-02"}, cfg.CSV.DateLayouts)
	assert.Equal(t, "A4", cfg.Report.PageSize)
	assert.Equal(t, 10, cfg.Report.TopSlices)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("history:\n  depth: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History.Depth)
	assert.Equal(t, "A4", cfg.Report.PageSize)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "title: Personal Finance Data")
	assert.Contains(t, contents, "depth: 50")
	assert.Contains(t, contents, "page_size: A4")
	assert.Contains(t, contents, "top_slices: 10")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.History.Depth = 0
	cfg.Report.PageSize = "A0"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.depth")
	assert.Contains(t, err.Error(), "report.page_size")
	assert.Contains(t, err.Error(), "log.level")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHistoryDepth, "12")
	t.Setenv(EnvPageSize, "letter")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 12, cfg.History.Depth)
	assert.Equal(t, "Letter", cfg.PageSizeName())
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv(EnvHistoryDepth, "many")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadWorkspace(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "missing file means defaults")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvTitle+"=From Env\n"), 0o644))
	t.Setenv(EnvTitle, "") // registers cleanup; godotenv only fills unset vars
	require.NoError(t, os.Unsetenv(EnvTitle))

	cfg, err = LoadWorkspace(dir)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Title)
}

func TestLoadWorkspace_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("history:\n  depth: -1\n"), 0o644))
	_, err := LoadWorkspace(dir)
	assert.ErrorContains(t, err, "history.depth")
}
