package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
verbosity: 2
log_file: /tmp/inspector.log
workers: 3
source:
  dir: ./testdata
  build_flags: ["-tags", "integration"]
  tests: true
`)

	cfg, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, "/tmp/inspector.log", cfg.LogFile)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "./testdata", cfg.Source.Dir)
	assert.Equal(t, []string{"-tags", "integration"}, cfg.Source.BuildFlags)
	assert.True(t, cfg.Source.Tests)
}

func TestParse_TOML(t *testing.T) {
	data := []byte(`
verbosity = 1
workers = 8

[source]
dir = "."
build_flags = ["-mod=mod"]
`)

	cfg, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Verbosity)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, ".", cfg.Source.Dir)
	assert.Equal(t, []string{"-mod=mod"}, cfg.Source.BuildFlags)
	assert.False(t, cfg.Source.Tests)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("verbosity: -3\n"), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Verbosity)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("workers: [1"), FormatYAML)
	require.Error(t, err)

	_, err = Parse([]byte("workers = "), FormatTOML)
	require.Error(t, err)

	_, err = Parse(nil, Format("ini"))
	require.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("inspector.toml"))
	assert.Equal(t, FormatTOML, FormatOf("INSPECTOR.TOML"))
	assert.Equal(t, FormatYAML, FormatOf("inspector.yaml"))
	assert.Equal(t, FormatYAML, FormatOf("inspector.yml"))
	assert.Equal(t, FormatYAML, FormatOf("inspector"))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	cfg := &Config{
		Verbosity: 1,
		Workers:   2,
		Source:    Source{Dir: "src", BuildFlags: []string{"-tags", "x"}, Tests: true},
	}

	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(cfg, path))

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
