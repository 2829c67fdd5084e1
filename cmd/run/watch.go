package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// runWatch runs the script, then runs it again in a fresh Context every
// time the file changes, until interrupted.
func runWatch(cfg Config, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file instead of writing it, so watch the
	// directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reload := make(chan struct{}, 1)
	var timer *time.Timer

	rerun := func() {
		fmt.Fprintf(os.Stderr, "--- running %s ---\n", path)
		if err := runFile(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	rerun()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-reload:
			rerun()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			cliLog.Debug("script changed", zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "File watcher error: %v\n", err)
		}
	}
}
