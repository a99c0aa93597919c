// Package watch triggers a synchronization whenever the bank drops a
// new remittance into the input folder.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pipedrive-sync/internal/domain"
)

type Syncer interface {
	ProcessFile(ctx context.Context, path string) (domain.SyncStats, error)
}

type Watcher struct {
	dir      string
	debounce time.Duration
	syncer   Syncer
	log      *zap.SugaredLogger
}

func New(dir string, debounce time.Duration, syncer Syncer, log *zap.SugaredLogger) *Watcher {
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		syncer:   syncer,
		log:      log,
	}
}

// Run blocks watching the input folder until the context is cancelled.
// Writes are debounced: banks upload in chunks, so the sync only starts
// after the file has been quiet for the debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure input dir %q: %w", w.dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}

	w.log.Infow("watching input folder", "dir", w.dir, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var pending string

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".txt") {
				continue
			}
			pending = ev.Name
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", "error", err)

		case <-timer.C:
			if pending == "" {
				continue
			}
			path := pending
			pending = ""

			w.log.Infow("remittance detected, starting sync", "file", path)
			stats, err := w.syncer.ProcessFile(ctx, path)
			if err != nil {
				w.log.Errorw("sync of detected file failed", "file", path, "error", err)
				continue
			}
			w.log.Infow("sync of detected file finished",
				"file", path,
				"debtors", stats.TotalDebtors,
				"persons_created", stats.PersonsCreated,
				"deals_created", stats.DealsCreated,
				"errors", len(stats.Errors))
		}
	}
}
