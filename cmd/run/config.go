package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/js-runtime/runtime"
	"github.com/wippyai/js-runtime/transcoder"
)

// Config is the optional YAML configuration file.
type Config struct {
	Timeout          string         `yaml:"timeout"`
	MaxCallStackSize int            `yaml:"max_call_stack_size"`
	DisableGlobals   []string       `yaml:"disable_globals"`
	Globals          map[string]any `yaml:"globals"`
	LogLevel         string         `yaml:"log_level"`
}

// LoadConfig reads a config file. An empty path returns the zero config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.timeout(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

func (c Config) options() []runtime.Option {
	var opts []runtime.Option
	if c.MaxCallStackSize > 0 {
		opts = append(opts, runtime.WithMaxCallStackSize(c.MaxCallStackSize))
	}
	if len(c.DisableGlobals) > 0 {
		opts = append(opts, runtime.WithoutGlobals(c.DisableGlobals...))
	}
	return opts
}

// newContext creates a Context with the console host and the configured
// globals installed.
func (c Config) newContext() (*runtime.Context, error) {
	return c.newContextTo(os.Stdout, os.Stderr)
}

// newContextTo is newContext with console output sent to out and errOut.
func (c Config) newContextTo(out, errOut io.Writer) (*runtime.Context, error) {
	ctx := runtime.New(c.options()...)
	if err := ctx.RegisterHost(newConsole(out, errOut)); err != nil {
		ctx.Close()
		return nil, err
	}

	globals := ctx.Globals()
	defer globals.Drop()
	for name, value := range c.Globals {
		v, err := transcoder.Encode(ctx, value)
		if err != nil {
			ctx.Close()
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		err = globals.Set(name, v)
		v.Drop()
		if err != nil {
			ctx.Close()
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
	}
	return ctx, nil
}

func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
