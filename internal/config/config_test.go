package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "famtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
report_path: /data/reports
workers: 3
output:
  format: json
web:
  watch: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/reports", cfg.ReportPath)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Web.Watch)
	// untouched keys keep their defaults
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:8080", cfg.Web.Addr)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1, 2"), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "failed to parse")

	format := filepath.Join(dir, "format.yaml")
	require.NoError(t, os.WriteFile(format, []byte("output:\n  format: xml\n"), 0644))
	_, err = Load(format)
	assert.ErrorContains(t, err, `unknown output format "xml"`)

	workers := filepath.Join(dir, "workers.yaml")
	require.NoError(t, os.WriteFile(workers, []byte("workers: -1\n"), 0644))
	_, err = Load(workers)
	assert.ErrorContains(t, err, "workers")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	want := Default()
	want.LogFile = "/tmp/famtree.log"
	want.Output.Path = "out"
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
