// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the given config file in a separate goroutine and
// sends every valid new version of it on the returned channel. Invalid
// versions are logged and skipped. The channel is closed when ctx is
// done. Watch does not install the configs: the receiver calls [Set]
// on the goroutine that owns the simulation.
func Watch(ctx context.Context, filename string) (<-chan Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	// editors often replace the file, so the directory is watched
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}
	ch := make(chan Config)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cf, err := Open(abs)
				if err != nil {
					slog.Error("config watcher: " + err.Error())
					continue
				}
				select {
				case ch <- cf:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("config watcher error: " + err.Error())
			}
		}
	}()
	return ch, nil
}
