package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads path whenever it changes and hands each valid result to
// onChange. It does not deliver the initial contents; load those before
// calling. Reloads that fail to parse or validate are logged and skipped so
// a half-saved file never takes the server down. Watch blocks until ctx is
// cancelled or the watcher breaks.
func Watch(ctx context.Context, path string, log zerolog.Logger, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	// Editors tend to replace the file rather than write it in place, which
	// drops a watch registered on the file itself. Watch the directory and
	// filter events by name.
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err == nil {
				LoadEnv(&cfg)
				err = Validate(cfg)
			}
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config reload skipped")
				continue
			}
			log.Debug().Str("path", path).Msg("config reloaded")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
