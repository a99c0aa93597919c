package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/logging"
)

type recordingSyncer struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingSyncer) ProcessFile(ctx context.Context, path string) (domain.SyncStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return domain.SyncStats{}, nil
}

func (r *recordingSyncer) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_TriggersOnNewRemittance(t *testing.T) {
	dir := t.TempDir()
	syncer := &recordingSyncer{}
	w := New(dir, 100*time.Millisecond, syncer, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "remessa_20260801.txt")
	if err := os.WriteFile(path, []byte("00\n99\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(syncer.processed()) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	got := syncer.processed()
	if len(got) != 1 {
		t.Fatalf("expected 1 processed file, got %d", len(got))
	}
	if got[0] != path {
		t.Fatalf("expected %s, got %s", path, got[0])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	syncer := &recordingSyncer{}
	w := New(dir, 100*time.Millisecond, syncer, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "planilha.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(500 * time.Millisecond)
	if got := syncer.processed(); len(got) != 0 {
		t.Fatalf("expected no processed files, got %v", got)
	}
}
