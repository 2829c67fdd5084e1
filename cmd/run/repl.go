package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/wippyai/js-runtime/errors"
	"github.com/wippyai/js-runtime/runtime"
)

const (
	prompt         = "js> "
	continuePrompt = "... "
)

// runREPL reads and evaluates statements until EOF. Piped input is
// evaluated as a single script.
func runREPL(cfg Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		src, err := readAll(os.Stdin)
		if err != nil {
			return err
		}
		return runSource(cfg, src, "<stdin>")
	}

	ctx, err := cfg.newContext()
	if err != nil {
		return err
	}
	defer ctx.Close()

	homeDir, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       filepath.Join(homeDir, ".jsrun_history"),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil {
			if stderrors.Is(err, readline.ErrInterrupt) {
				if pending.Len() == 0 && len(line) == 0 {
					fmt.Println("Use Ctrl-D or .exit to exit")
				}
				pending.Reset()
				rl.SetPrompt(prompt)
				continue
			}
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if pending.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ".exit":
				return nil
			}
		}
		pending.WriteString(line)
		pending.WriteByte('\n')

		src := pending.String()
		if incomplete(ctx, src) {
			rl.SetPrompt(continuePrompt)
			continue
		}
		pending.Reset()
		rl.SetPrompt(prompt)

		v, err := evaluate(cfg, ctx, src, "<repl>")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Uncaught %v\n", err)
			continue
		}
		fmt.Println(formatValue(ctx, v))
		v.Drop()
	}
}

// incomplete reports whether src fails to compile only because input
// ended early, so the REPL should keep reading.
func incomplete(ctx *runtime.Context, src string) bool {
	fn, err := ctx.Compile(src, "<repl>")
	if err == nil {
		fn.Drop()
		return false
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeSyntaxError {
		return false
	}
	msg, _ := e.RuntimeMessage()
	return strings.Contains(msg, "Unexpected end of input") ||
		strings.Contains(msg, "Unterminated template")
}
