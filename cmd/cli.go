package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/fzft/go-resp3/deps/linenoise"
	"github.com/fzft/go-resp3/log"
	"github.com/fzft/go-resp3/resp"
	"github.com/fzft/go-resp3/script"
	"github.com/mattn/go-isatty"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	ProgramName = "resp3-cli"
	CliVersion  = "0.3.0"
)

var errQuit = errors.New("quit")

// BuildInfo carries the values injected into the binary at link time.
type BuildInfo struct {
	GitSHA1   string
	GitDirty  string
	BuildID   string
	BuildDate string
}

func known(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "unknown"
}

type Cli struct {
	config *CliCfg
	build  BuildInfo

	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	stdinTTY  bool
	stdoutTTY bool

	showVersion bool
	clear       func() error
}

func NewCli(stdin io.Reader, stdout, stderr io.Writer, build BuildInfo) *Cli {
	cli := &Cli{
		build:     build,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		stdinTTY:  isTerminal(stdin),
		stdoutTTY: isTerminal(stdout),
	}
	cli.config = defaultConfig(cli.stdoutTTY)
	return cli
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (cli *Cli) Version() string {
	version := CliVersion
	sha := strings.TrimSpace(cli.build.GitSHA1)
	if known(sha) && strings.Trim(sha, "0") != "" {
		version = fmt.Sprintf("%s (git:%s", version, sha)
		if dirty, err := strconv.Atoi(cli.build.GitDirty); err == nil && dirty != 0 {
			version += "-dirty"
		}
		version += ")"
	}
	if known(cli.build.BuildID) {
		version += " build=" + strings.TrimSpace(cli.build.BuildID)
	}
	if known(cli.build.BuildDate) {
		version += " date=" + strings.TrimSpace(cli.build.BuildDate)
	}
	return version
}

func (cli *Cli) Usage(out io.Writer) {
	fmt.Fprintf(out, `%s %s

Usage: %s [OPTIONS] [cmd [arg [arg ...]]]
  --raw              Use raw formatting (default when STDOUT is not a tty).
  --no-raw           Force formatted output even when STDOUT is not a tty.
  --json             Output in JSON format.
  --quoted-json      Same as --json, but produce ASCII-safe quoted strings.
  --wire             Print frames as quoted protocol bytes.
  --dump             Print the Go value of every frame.
  --output <mode>    One of standard, raw, json, quoted-json, wire, dump.
  --decode           Decode the frames in the named files (or STDIN).
  --eval <file>      Run a Lua script, keys and args separated by a lone ','.
  --width <n>        Elide bulk strings wider than n (0: terminal, -1: never).
  --max-bulk <n>     Reject bulk strings longer than n bytes.
  --max-elements <n> Reject aggregates declaring more than n elements.
  --max-depth <n>    Reject frames nested deeper than n (default: %d).
  --rc <file>        Read preferences from file (default: ~/%s).
  --history-file <f> Keep the prompt history in f (default: ~/%s).
  --no-history       Do not keep a prompt history.
  --prompt <text>    Prompt shown in interactive mode.
  --log-level <lvl>  One of debug, info, warn, error, off.
  -v                 Same as --log-level debug.
  --version          Output version and exit.
  --help             Output this help and exit.

Examples:
  %s SET key value
  %s SET key value | nc localhost 6379
  printf '*1\r\n$4\r\nPING\r\n' | %s --decode
  %s --eval script.lua key1 key2 , arg1 arg2

When no command is given, %s starts in interactive mode.
Type "help" in interactive mode for information on builtins.
`, ProgramName, cli.Version(), ProgramName, resp.DefaultMaxDepth, DefaultRCFile, DefaultHistFile,
		ProgramName, ProgramName, ProgramName, ProgramName, ProgramName)
}

// ParseOptions builds the configuration from defaults, the rc file, the
// environment and argv, later sources winning.
func (cli *Cli) ParseOptions(argv []string) error {
	flags := flag.NewFlagSet(ProgramName, flag.ContinueOnError)
	flags.SetOutput(cli.stderr)
	flags.Usage = func() { cli.Usage(cli.stderr) }

	var (
		output      string
		rc          string
		historyFile string
		prompt      string
		logLevel    string
		width       int
		maxBulk     int64
		maxElements int64
		maxDepth    int
	)
	flags.Bool("raw", false, "")
	flags.Bool("no-raw", false, "")
	flags.Bool("json", false, "")
	flags.Bool("quoted-json", false, "")
	flags.Bool("wire", false, "")
	flags.Bool("dump", false, "")
	flags.StringVar(&output, "output", "", "")
	decode := flags.Bool("decode", false, "")
	eval := flags.String("eval", "", "")
	flags.IntVar(&width, "width", 0, "")
	flags.Int64Var(&maxBulk, "max-bulk", 0, "")
	flags.Int64Var(&maxElements, "max-elements", 0, "")
	flags.IntVar(&maxDepth, "max-depth", 0, "")
	flags.StringVar(&rc, "rc", "", "")
	flags.StringVar(&historyFile, "history-file", "", "")
	flags.Bool("no-history", false, "")
	flags.StringVar(&prompt, "prompt", "", "")
	flags.StringVar(&logLevel, "log-level", "", "")
	flags.Bool("v", false, "")
	version := flags.Bool("version", false, "")

	if err := flags.Parse(argv); err != nil {
		return err
	}

	cfg := defaultConfig(cli.stdoutTTY)
	rcPath, required := rc, rc != ""
	if rcPath == "" {
		rcPath = getDotfilePath(EnvRCFile, DefaultRCFile)
	}
	if rcPath != "" {
		if err := loadRCFile(rcPath, cfg, required); err != nil {
			return err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return err
	}

	var errs error
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "raw":
			cfg.output = OutputRaw
		case "no-raw":
			cfg.output = OutputStandard
		case "json":
			cfg.output = OutputJson
		case "quoted-json":
			cfg.output = OutputQuotedJson
		case "wire":
			cfg.output = OutputWire
		case "dump":
			cfg.output = OutputDump
		case "output":
			mode, err := ParseOutputMode(output)
			errs = multierr.Append(errs, err)
			cfg.output = mode
		case "width":
			cfg.maxWidth = width
		case "max-bulk":
			cfg.limits.MaxBulkLength = maxBulk
		case "max-elements":
			cfg.limits.MaxElements = maxElements
		case "max-depth":
			cfg.limits.MaxDepth = maxDepth
		case "history-file":
			cfg.historyFile = expandHome(historyFile)
		case "no-history":
			cfg.history = false
		case "prompt":
			cfg.prompt = prompt
		case "log-level":
			if _, ok := log.ParseLevel(logLevel); !ok {
				errs = multierr.Append(errs, fmt.Errorf("unknown log level %q", logLevel))
			}
			cfg.logLevel = logLevel
		case "v":
			cfg.logLevel = "debug"
		}
	})
	if errs != nil {
		return errs
	}
	if cfg.limits.MaxBulkLength < 0 || cfg.limits.MaxElements < 0 || cfg.limits.MaxDepth < 0 {
		return errors.New("decoder limits must not be negative")
	}

	cfg.decode = *decode
	cfg.evalFile = *eval
	cfg.args = flags.Args()
	if cfg.decode && cfg.evalFile != "" {
		return errors.New("--decode and --eval are mutually exclusive")
	}
	cli.showVersion = *version
	cli.config = cfg
	return nil
}

// LogStartup logs what option parsing found; call it after log.InitLogger.
func (cli *Cli) LogStartup() {
	logRCFile(cli.config)
}

func (cli *Cli) LogConfig() log.Config {
	return log.Config{
		Level: cli.config.logLevel,
		Color: isTerminal(os.Stderr),
	}
}

// Run executes the mode selected by ParseOptions and returns the process
// exit status.
func (cli *Cli) Run(ctx context.Context) int {
	if cli.showVersion {
		fmt.Fprintf(cli.stdout, "%s %s\n", ProgramName, cli.Version())
		return 0
	}

	var err error
	switch cfg := cli.config; {
	case cfg.evalFile != "":
		err = cli.evalFile(ctx, cfg.evalFile, cfg.args)
	case cfg.decode:
		err = cli.decodeInputs(cfg.args)
	case len(cfg.args) > 0:
		err = cli.encodeCommand(cfg.args)
	case cli.stdinTTY:
		err = cli.repl(ctx)
	default:
		err = cli.readCommands(ctx, cli.stdin)
	}
	if err != nil {
		for _, e := range multierr.Errors(err) {
			cli.reportError(e)
		}
		return 1
	}
	return 0
}

func (cli *Cli) reportError(err error) {
	fmt.Fprintf(cli.stderr, "(error) %v\n", err)
}

func (cli *Cli) decoder() *resp.Decoder {
	return &resp.Decoder{
		MaxBulkLength: cli.config.limits.MaxBulkLength,
		MaxElements:   cli.config.limits.MaxElements,
		MaxDepth:      cli.config.limits.MaxDepth,
	}
}

func (cli *Cli) formatter() formatter {
	width := cli.config.maxWidth
	if width == 0 {
		width = terminalWidth(cli.stdout)
	}
	return formatter{mode: cli.config.output, width: width}
}

func (cli *Cli) printFrames(frames ...resp.Frame) error {
	out := cli.formatter()
	for _, f := range frames {
		s, err := out.Format(f)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(cli.stdout, s); err != nil {
			return err
		}
	}
	return nil
}

func (cli *Cli) encodeCommand(argv []string) error {
	b := resp.EncodeCommand(argv[0], argv[1:]...)
	log.Logger.Debug("encoded command", zap.String("name", argv[0]), zap.Int("args", len(argv)-1), zap.Int("bytes", len(b)))
	_, err := io.WriteString(cli.stdout, cli.formatter().FormatWire(b))
	return err
}

// decodeInputs decodes every named file, "-" meaning STDIN, and reports
// all failures together.
func (cli *Cli) decodeInputs(names []string) error {
	if len(names) == 0 {
		return cli.decodeInput("(stdin)", cli.stdin)
	}
	var errs error
	for _, name := range names {
		errs = multierr.Append(errs, cli.decodeFile(name))
	}
	return errs
}

func (cli *Cli) decodeFile(name string) error {
	if name == "-" {
		return cli.decodeInput("(stdin)", cli.stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return cli.decodeInput(name, f)
}

func (cli *Cli) decodeInput(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	frames, err := cli.decoder().DecodeAll(data)
	log.Logger.Debug("decoded input",
		zap.String("input", name),
		zap.Int("bytes", len(data)),
		zap.Int("frames", len(frames)),
		zap.Error(err))
	if perr := cli.printFrames(frames...); perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// splitEvalArgs separates keys from arguments at the first lone ",".
func splitEvalArgs(argv []string) (keys, args []string) {
	for i, a := range argv {
		if a == "," {
			return argv[:i], argv[i+1:]
		}
	}
	return argv, nil
}

func (cli *Cli) evalFile(ctx context.Context, path string, argv []string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	keys, args := splitEvalArgs(argv)
	return cli.eval(ctx, string(src), keys, args)
}

func (cli *Cli) eval(ctx context.Context, src string, keys, args []string) error {
	f, err := script.Eval(ctx, src, keys, args)
	if err != nil {
		return err
	}
	log.Logger.Debug("script finished", zap.Stringer("kind", f.Kind()))
	return cli.printFrames(f)
}

// readCommands runs every line of r as if typed at the prompt. Failing
// lines are reported and do not stop the rest.
func (cli *Cli) readCommands(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := cli.execLine(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			cli.reportError(err)
		}
	}
	return scanner.Err()
}

func (cli *Cli) repl(ctx context.Context) error {
	ln := linenoise.New()
	defer ln.Close()
	ln.SetWords(builtinNames())
	cli.clear = ln.ClearScreen

	historyFile := ""
	if cli.config.history && cli.config.historyFile != "" {
		historyFile = cli.config.historyFile
		if err := ln.HistoryLoad(historyFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Logger.Warn("cannot load history", zap.String("path", historyFile), zap.Error(err))
		}
	}

	for ctx.Err() == nil {
		line, err := ln.Prompt(cli.config.prompt)
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if cli.config.history {
			ln.AppendHistory(line)
		}
		err = cli.execLine(ctx, line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			cli.reportError(err)
		}
	}

	if historyFile != "" {
		if err := ln.HistorySave(historyFile); err != nil {
			log.Logger.Warn("cannot save history", zap.String("path", historyFile), zap.Error(err))
		}
	}
	return nil
}

// execLine runs one prompt line. A leading count repeats the command,
// as in "3 encode PING".
func (cli *Cli) execLine(ctx context.Context, line string) error {
	argv, err := splitArgs(line)
	if err != nil {
		return fmt.Errorf("invalid argument(s): %w", err)
	}
	if len(argv) == 0 {
		return nil
	}

	repeat := 1
	if n, err := strconv.Atoi(argv[0]); err == nil && len(argv) > 1 {
		if n <= 0 {
			return errors.New("invalid repeat command option value")
		}
		repeat = n
		argv = argv[1:]
	}
	for i := 0; i < repeat; i++ {
		if err := cli.execCommand(ctx, argv); err != nil {
			return err
		}
	}
	return nil
}

func (cli *Cli) execCommand(ctx context.Context, argv []string) error {
	name := strings.ToLower(argv[0])
	if doc, ok := lookupBuiltin(name); ok && len(argv)-1 < doc.minArgs {
		return fmt.Errorf("wrong number of arguments for '%s', usage: %s %s", doc.name, doc.name, doc.params)
	}

	switch name {
	case "quit", "exit":
		return errQuit
	case "help":
		return cli.help(argv[1:])
	case "clear":
		if cli.clear != nil {
			return cli.clear()
		}
		return nil
	case ":output":
		mode, err := ParseOutputMode(argv[1])
		if err != nil {
			return err
		}
		cli.config.output = mode
		return nil
	case ":width":
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			return fmt.Errorf("invalid width %q", argv[1])
		}
		cli.config.maxWidth = n
		return nil
	case "decode":
		frames, err := cli.decoder().DecodeAll([]byte(strings.Join(argv[1:], "")))
		if perr := cli.printFrames(frames...); perr != nil {
			return perr
		}
		return err
	case "encode":
		return cli.encodeCommand(argv[1:])
	case "eval":
		numkeys, err := strconv.Atoi(argv[2])
		if err != nil || numkeys < 0 {
			return fmt.Errorf("invalid number of keys %q", argv[2])
		}
		rest := argv[3:]
		if numkeys > len(rest) {
			return errors.New("number of keys can't be greater than number of args")
		}
		return cli.eval(ctx, argv[1], rest[:numkeys], rest[numkeys:])
	}

	// Anything else is a command: show the frame its encoding decodes to.
	b := resp.EncodeCommand(argv[0], argv[1:]...)
	f, _, err := cli.decoder().Decode(b)
	if err != nil {
		return err
	}
	return cli.printFrames(f)
}

func (cli *Cli) help(topics []string) error {
	out := cli.stdout
	if len(topics) > 0 {
		doc, ok := lookupBuiltin(topics[0])
		if !ok {
			return fmt.Errorf("no help for %q", topics[0])
		}
		fmt.Fprintf(out, "\n  %s %s\n  summary: %s\n\n", doc.name, doc.params, doc.summary)
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", ProgramName, cli.Version())
	fmt.Fprintln(out, `To see the frame a command is sent as, type it: "SET key value".`)
	fmt.Fprintln(out, "Builtins:")
	for _, doc := range builtinDocs {
		fmt.Fprintf(out, "  %-8s %s\n", doc.name, doc.summary)
	}
	return nil
}
