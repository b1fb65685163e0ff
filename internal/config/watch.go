package config

import (
	"context"
	"os"
	"time"

	"caredesk/internal/calendar"
)

// WatchSettings reloads the config file on change and calls onUpdate
// with the latest calendar settings. It performs an initial load before
// entering the watch loop, so callers always see one update.
func WatchSettings(ctx context.Context, path string, interval time.Duration, onUpdate func(calendar.Settings)) error {
	if path == "" {
		path = "configs/config.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg.Calendar)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					continue
				}
				lastMod = info.ModTime()
				if onUpdate != nil {
					onUpdate(cfg.Calendar)
				}
			}
		}
	}()

	return nil
}
