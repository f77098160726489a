package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fzft/go-resp3/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeRC(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resp3clirc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRCFileOverlay(t *testing.T) {
	path := writeRC(t, `
output = "json"
prompt = "> "
history = false
max_width = 40
log_level = "warn"
[limits]
max_bulk_length = 1024
max_depth = 8
`)
	cfg := defaultConfig(true)
	cfg.limits.MaxElements = 99
	require.NoError(t, loadRCFile(path, cfg, true))

	assert.Equal(t, OutputJson, cfg.output)
	assert.Equal(t, "> ", cfg.prompt)
	assert.False(t, cfg.history)
	assert.Equal(t, 40, cfg.maxWidth)
	assert.Equal(t, "warn", cfg.logLevel)
	assert.Equal(t, int64(1024), cfg.limits.MaxBulkLength)
	assert.Equal(t, int64(99), cfg.limits.MaxElements)
	assert.Equal(t, 8, cfg.limits.MaxDepth)
}

func TestLoadRCFileKeepsDefaults(t *testing.T) {
	path := writeRC(t, `prompt = "x> "`)
	cfg := defaultConfig(false)
	require.NoError(t, loadRCFile(path, cfg, true))

	assert.Equal(t, OutputRaw, cfg.output)
	assert.True(t, cfg.history)
	assert.Equal(t, "x> ", cfg.prompt)
}

func TestLoadRCFileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	assert.NoError(t, loadRCFile(missing, defaultConfig(true), false))
	assert.Error(t, loadRCFile(missing, defaultConfig(true), true))

	assert.Error(t, loadRCFile(writeRC(t, `output = "csv"`), defaultConfig(true), true))
	assert.Error(t, loadRCFile(writeRC(t, `log_level = "loud"`), defaultConfig(true), true))
	assert.Error(t, loadRCFile(writeRC(t, `output = `), defaultConfig(true), true))
}

func TestGetDotfilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Setenv(EnvHistFile, "")
	assert.Equal(t, filepath.Join(home, DefaultHistFile), getDotfilePath(EnvHistFile, DefaultHistFile))

	t.Setenv(EnvHistFile, "/tmp/hist")
	assert.Equal(t, "/tmp/hist", getDotfilePath(EnvHistFile, DefaultHistFile))

	t.Setenv(EnvHistFile, "~/hist")
	assert.Equal(t, filepath.Join(home, "hist"), getDotfilePath(EnvHistFile, DefaultHistFile))

	t.Setenv(EnvHistFile, "/dev/null")
	assert.Equal(t, "", getDotfilePath(EnvHistFile, DefaultHistFile))
}

func TestParseOptionsPrecedence(t *testing.T) {
	rc := writeRC(t, `
output = "json"
max_width = 10
[limits]
max_depth = 5
`)
	t.Setenv(EnvRCFile, rc)
	t.Setenv(EnvOutput, "wire")

	cli := NewCli(nil, nil, nil, BuildInfo{})
	require.NoError(t, cli.ParseOptions([]string{"--max-depth", "7"}))
	assert.Equal(t, OutputWire, cli.config.output, "env beats rc")
	assert.Equal(t, 10, cli.config.maxWidth)
	assert.Equal(t, 7, cli.config.limits.MaxDepth, "flag beats rc")

	require.NoError(t, cli.ParseOptions([]string{"--dump"}))
	assert.Equal(t, OutputDump, cli.config.output, "flag beats env")
	assert.Equal(t, 5, cli.config.limits.MaxDepth)
}

func TestParseOptionsExplicitRC(t *testing.T) {
	t.Setenv(EnvRCFile, "/dev/null")
	t.Setenv(EnvOutput, "")

	cli := NewCli(nil, nil, nil, BuildInfo{})
	rc := writeRC(t, `prompt = "rc> "`)
	require.NoError(t, cli.ParseOptions([]string{"--rc", rc, "PING"}))
	assert.Equal(t, "rc> ", cli.config.prompt)
	assert.Equal(t, []string{"PING"}, cli.config.args)

	err := cli.ParseOptions([]string{"--rc", filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestLogRCFileAfterLoggerInit(t *testing.T) {
	path := writeRC(t, "prompt = \"> \"\ncolour = true\n")
	cfg := defaultConfig(true)
	require.NoError(t, loadRCFile(path, cfg, true))
	assert.Equal(t, path, cfg.rcPath)
	assert.Equal(t, []string{"colour"}, cfg.rcUnknownKeys)

	core, logs := observer.New(zapcore.DebugLevel)
	prev := log.Logger
	log.Logger = zap.New(core)
	defer func() { log.Logger = prev }()

	logRCFile(cfg)
	warns := logs.FilterMessage("ignoring unknown rc keys").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.Equal(t, []interface{}{"colour"}, warns[0].ContextMap()["keys"])
	assert.Equal(t, 1, logs.FilterMessage("loaded rc file").Len())
}

func TestLogRCFileWithoutRC(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := log.Logger
	log.Logger = zap.New(core)
	defer func() { log.Logger = prev }()

	logRCFile(defaultConfig(true))
	assert.Zero(t, logs.Len())
}
