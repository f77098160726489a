package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fzft/go-resp3/log"
	"go.uber.org/zap"
)

const (
	EnvHistFile     = "RESP3CLI_HISTFILE"
	DefaultHistFile = ".resp3cli_history"
	EnvRCFile       = "RESP3CLI_RCFILE"
	DefaultRCFile   = ".resp3clirc"
	EnvOutput       = "RESP3CLI_OUTPUT"

	DefaultPrompt = "resp3> "
)

type CliCfg struct {
	output      OutputMode
	prompt      string
	history     bool
	historyFile string
	// maxWidth bounds bulk strings in standard output. Zero follows the
	// terminal width, negative disables eliding.
	maxWidth int
	logLevel string
	limits   limitsConfig

	// rcPath and rcUnknownKeys describe the rc file that was read, for
	// logging once the logger is configured.
	rcPath        string
	rcUnknownKeys []string

	decode   bool
	evalFile string
	args     []string
}

type limitsConfig struct {
	MaxBulkLength int64 `toml:"max_bulk_length"`
	MaxElements   int64 `toml:"max_elements"`
	MaxDepth      int   `toml:"max_depth"`
}

// rcFile is the ~/.resp3clirc layout.
type rcFile struct {
	Output      string       `toml:"output"`
	Prompt      string       `toml:"prompt"`
	History     bool         `toml:"history"`
	HistoryFile string       `toml:"history_file"`
	MaxWidth    int          `toml:"max_width"`
	LogLevel    string       `toml:"log_level"`
	Limits      limitsConfig `toml:"limits"`
}

func defaultConfig(stdoutTTY bool) *CliCfg {
	cfg := &CliCfg{
		output:      OutputStandard,
		prompt:      DefaultPrompt,
		history:     true,
		historyFile: getDotfilePath(EnvHistFile, DefaultHistFile),
		logLevel:    "info",
	}
	if !stdoutTTY {
		cfg.output = OutputRaw
	}
	return cfg
}

// loadRCFile overlays the keys present in path onto cfg. A missing file
// is not an error unless required is set.
func loadRCFile(path string, cfg *CliCfg, required bool) error {
	var raw rcFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load rc file: %w", err)
	}

	if meta.IsDefined("output") {
		mode, err := ParseOutputMode(raw.Output)
		if err != nil {
			return fmt.Errorf("load rc file %s: %w", path, err)
		}
		cfg.output = mode
	}
	if meta.IsDefined("prompt") {
		cfg.prompt = raw.Prompt
	}
	if meta.IsDefined("history") {
		cfg.history = raw.History
	}
	if meta.IsDefined("history_file") {
		cfg.historyFile = expandHome(strings.TrimSpace(raw.HistoryFile))
	}
	if meta.IsDefined("max_width") {
		cfg.maxWidth = raw.MaxWidth
	}
	if meta.IsDefined("log_level") {
		if _, ok := log.ParseLevel(raw.LogLevel); !ok {
			return fmt.Errorf("load rc file %s: unknown log level %q", path, raw.LogLevel)
		}
		cfg.logLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("limits", "max_bulk_length") {
		cfg.limits.MaxBulkLength = raw.Limits.MaxBulkLength
	}
	if meta.IsDefined("limits", "max_elements") {
		cfg.limits.MaxElements = raw.Limits.MaxElements
	}
	if meta.IsDefined("limits", "max_depth") {
		cfg.limits.MaxDepth = raw.Limits.MaxDepth
	}
	cfg.rcPath = path
	cfg.rcUnknownKeys = nil
	for _, k := range meta.Undecoded() {
		cfg.rcUnknownKeys = append(cfg.rcUnknownKeys, k.String())
	}
	return nil
}

// logRCFile reports what loadRCFile found. Options are parsed before the
// logger exists, so this runs after log.InitLogger.
func logRCFile(cfg *CliCfg) {
	if cfg.rcPath == "" {
		return
	}
	if len(cfg.rcUnknownKeys) > 0 {
		log.Logger.Warn("ignoring unknown rc keys", zap.String("path", cfg.rcPath), zap.Strings("keys", cfg.rcUnknownKeys))
	}
	log.Logger.Debug("loaded rc file", zap.String("path", cfg.rcPath))
}

// applyEnv applies the environment overrides, which beat the rc file.
func applyEnv(cfg *CliCfg) error {
	if os.Getenv(EnvHistFile) != "" {
		cfg.historyFile = getDotfilePath(EnvHistFile, DefaultHistFile)
	}
	if raw := os.Getenv(EnvOutput); raw != "" {
		mode, err := ParseOutputMode(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOutput, err)
		}
		cfg.output = mode
	}
	return nil
}

// getDotfilePath returns the value of envOverride when set, or the dot
// file under $HOME. "/dev/null" disables the file.
func getDotfilePath(envOverride, dotFilename string) string {
	if path := os.Getenv(envOverride); path != "" {
		if path == "/dev/null" {
			return ""
		}
		return expandHome(path)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, dotFilename)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
