package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	jsruntime "github.com/wippyai/js-runtime"
	"github.com/wippyai/js-runtime/runtime"
)

var cliLog = zap.NewNop()

func main() {
	var (
		source      = flag.String("e", "", "Evaluate a script given on the command line")
		file        = flag.String("file", "", "Path to a script file")
		timeout     = flag.Duration("timeout", 0, "Cancel scripts running longer than this (0 disables)")
		configPath  = flag.String("config", "", "Path to a YAML config file")
		watch       = flag.Bool("watch", false, "Re-run the script file whenever it changes")
		repl        = flag.Bool("repl", false, "Start an interactive read-eval-print loop")
		interactive = flag.Bool("i", false, "Interactive mode with TUI: pick a global function and call it")
		verbose     = flag.Bool("v", false, "Verbose logging")
		version     = flag.Bool("version", false, "Print the version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("run", jsruntime.Version)
		return
	}

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *timeout > 0 {
		cfg.Timeout = timeout.String()
	}

	logger, err := newLogger(*verbose, cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	runtime.SetLogger(logger)
	cliLog = logger.Named("run")

	switch {
	case *interactive:
		if *file == "" {
			usage()
		}
		err = runInteractive(cfg, *file)
	case *watch:
		if *file == "" {
			usage()
		}
		err = runWatch(cfg, *file)
	case *repl:
		err = runREPL(cfg)
	case *source != "":
		err = runSource(cfg, *source, "<eval>")
	case *file != "":
		err = runFile(cfg, *file)
	default:
		err = runREPL(cfg)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: run [-config file.yaml] [-timeout 5s] -e <source>")
	fmt.Fprintln(os.Stderr, "       run [-config file.yaml] [-timeout 5s] [-watch] <file.js>")
	fmt.Fprintln(os.Stderr, "       run -i <file.js>  (interactive mode)")
	fmt.Fprintln(os.Stderr, "       run [-repl]       (read-eval-print loop, or evaluate piped stdin)")
	os.Exit(1)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runFile(cfg Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return runSource(cfg, string(data), path)
}

func runSource(cfg Config, source, name string) error {
	ctx, err := cfg.newContext()
	if err != nil {
		return err
	}
	defer ctx.Close()

	v, err := evaluate(cfg, ctx, source, name)
	if err != nil {
		return err
	}
	if !v.IsUndefined() {
		fmt.Println(formatValue(ctx, v))
	}
	return nil
}

// evaluate runs source under the configured timeout. Ctrl-C cancels the
// running script instead of killing the process.
func evaluate(cfg Config, ctx *runtime.Context, source, name string) (runtime.Value, error) {
	timeout, err := cfg.timeout()
	if err != nil {
		return runtime.Value{}, err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	execCtx := sigCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(sigCtx, timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := ctx.Exec(source, name, runtime.ExecSettings{Cancel: runtime.CancelOnContext(execCtx)})
	cliLog.Debug("script finished",
		zap.String("name", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return v, err
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
