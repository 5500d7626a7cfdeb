// Command nrbf inspects, extracts, verifies and rewrites binary
// object-graph streams without ever instantiating the types they name.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
	"github.com/wippyai/nrbf/internal/config"
	"github.com/wippyai/nrbf/internal/payload"
)

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

type command struct {
	summary string
	usage   string
	flags   func(fs *pflag.FlagSet, opts *options)
	run     func(env *env, args []string) error
}

var commands = map[string]command{
	"inspect": {
		summary: "decode a stream and dump its records",
		usage:   "inspect [-f text|json|yaml|cbor] [--compact] FILE",
		flags: func(fs *pflag.FlagSet, opts *options) {
			fs.StringVarP(&opts.format, "format", "f", "", "output format: text, json, yaml or cbor")
			fs.BoolVar(&opts.compact, "compact", false, "single-line JSON")
		},
		run: runInspect,
	},
	"extract": {
		summary: "print the root value when it has a known shape",
		usage:   "extract [--color auto|always|never] FILE",
		flags: func(fs *pflag.FlagSet, opts *options) {
			fs.StringVar(&opts.color, "color", "", "highlight JSON: auto, always or never")
			fs.BoolVar(&opts.compact, "compact", false, "single-line JSON")
		},
		run: runExtract,
	},
	"roundtrip": {
		summary: "decode, re-encode and compare with the input (booleans are written as 0 or 1)",
		usage:   "roundtrip FILE",
		run:     runRoundTrip,
	},
	"convert": {
		summary: "re-encode a stream, optionally compressed",
		usage:   "convert [--compress none|zstd|lz4] FILE OUT",
		flags: func(fs *pflag.FlagSet, opts *options) {
			fs.StringVar(&opts.compress, "compress", string(payload.None), "output compression: none, zstd or lz4")
		},
		run: runConvert,
	},
	"browse": {
		summary: "browse records interactively",
		usage:   "browse FILE",
		run:     runBrowse,
	},
}

// options holds global and per-command flag values.
type options struct {
	configPath string
	decompress string
	maxDepth   int
	verbose    bool

	format   string
	compact  bool
	color    string
	compress string
}

// env is what a command runs against.
type env struct {
	cfg    *config.Config
	opts   options
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return &exitError{code: 2, msg: "no command given"}
		}
		return nil
	}
	// -i is shorthand for browse.
	if args[0] == "-i" {
		args[0] = "browse"
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return &exitError{code: 2, msg: fmt.Sprintf("unknown command %q", name)}
	}

	var opts options
	fs := pflag.NewFlagSet("nrbf "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default $"+config.EnvVar+")")
	fs.StringVar(&opts.decompress, "decompress", "", "input compression: none, zstd, lz4 or auto")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "record nesting limit")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	if cmd.flags != nil {
		cmd.flags(fs, &opts)
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: nrbf %s\n\n", cmd.usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return &exitError{code: 2, msg: err.Error()}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, fs, opts); err != nil {
		return err
	}

	log := newLogger(opts.verbose, stderr)
	defer func() { _ = log.Sync() }()
	format.SetLogger(log.Named("format"))
	extract.SetLogger(log.Named("extract"))

	return cmd.run(&env{cfg: cfg, opts: opts, stdout: stdout, stderr: stderr, log: log}, fs.Args())
}

// applyFlags overrides file settings with flags given on the command line.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet, opts options) error {
	if fs.Changed("decompress") {
		cfg.Decompress = opts.decompress
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = opts.maxDepth
	}
	if fs.Changed("format") {
		cfg.Format = opts.format
	}
	if fs.Changed("color") {
		cfg.Color = opts.color
	}
	return cfg.Validate()
}

// newLogger returns a development logger when verbose is set: console
// output on a terminal, JSON otherwise.
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	var (
		log *zap.Logger
		err error
	)
	if f, ok := stderr.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		log, err = cfg.Build()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nrbf <command> [flags] FILE")
	fmt.Fprintln(w, "       nrbf -i FILE  (interactive browser)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags: --config, --decompress, --max-depth, --verbose")
}

// loadGraph reads and decodes the stream at path.
func (e *env) loadGraph(path string) (*format.Graph, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	data, err := payload.Read(f, e.cfg.Compression())
	if err != nil {
		return nil, nil, err
	}
	e.log.Debug("payload loaded",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("digest", payload.Sum(data).Short()))

	opts := e.cfg.DecodeOptions()
	opts.Logger = format.Logger()
	g, err := format.DecodeWithOptions(bytes.NewReader(data), opts)
	if err != nil {
		return nil, nil, err
	}
	return g, data, nil
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", &exitError{code: 2, msg: fmt.Sprintf("expected exactly one %s, got %d arguments", what, len(args))}
	}
	return args[0], nil
}
