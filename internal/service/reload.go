package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/dvars/internal/flags"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/watcher"
)

// Reload re-applies the changed source files. The archive is applied from
// the Internal source and HCL files from External, as at bootstrap.
func (s *Service) Reload(ctx context.Context, paths []string) (int, error) {
	var errs []error
	total := 0
	for _, path := range paths {
		var (
			n   int
			err error
		)
		switch {
		case s.cfg.ArchiveFile != "" && samePath(path, s.cfg.ArchiveFile):
			n, err = s.loadArchive(ctx, path)
		case s.isHCLFile(path):
			n, err = s.loadHCL(ctx, path)
		default:
			log.Debug(log.CatWatcher, "Ignoring unknown path", "path", path)
			continue
		}
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("reloading %s: %w", path, err))
		}
	}
	return total, errors.Join(errs...)
}

func (s *Service) isHCLFile(path string) bool {
	for _, f := range s.cfg.HCLFiles {
		if samePath(path, f) {
			return true
		}
	}
	return false
}

// WatchEnabled reports whether hot reload is turned on by config or flag.
func (s *Service) WatchEnabled() bool {
	return s.cfg.Watch.Enabled || s.flags.Enabled(flags.FlagWatchConfig)
}

// Watch reloads the archive and HCL files when they change until ctx is
// done. It returns once the watcher is running.
func (s *Service) Watch(ctx context.Context) error {
	files := s.cfg.WatchedFiles()
	if len(files) == 0 {
		return errors.New("no files to watch")
	}
	cfg := watcher.DefaultConfig(files...)
	if s.cfg.Watch.Debounce > 0 {
		cfg.DebounceDur = s.cfg.Watch.Debounce
	}
	w, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case paths, ok := <-changes:
				if !ok {
					return
				}
				n, err := s.Reload(ctx, paths)
				if err != nil {
					log.ErrorErr(log.CatWatcher, "Reload failed", err, "paths", paths)
				} else {
					log.Info(log.CatWatcher, "Reloaded", "paths", paths, "count", n)
				}
				if s.onReload != nil {
					s.onReload(paths, n, err)
				}
			}
		}
	}()
	return nil
}
