package weights

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestEnsureReadyDownloadsMissing(t *testing.T) {
	dir := t.TempDir()
	var got []string
	m := NewManager("models", dir, []string{"encoder.pt", "decoder.pt"}, nil)
	m.download = func(ctx context.Context, bucket, key, dest string) error {
		got = append(got, key)
		return os.WriteFile(dest, []byte("weights"), 0o644)
	}

	if err := m.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("downloaded %v, want both files", got)
	}
	for _, name := range []string{"encoder.pt", "decoder.pt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s after EnsureReady: %v", name, err)
		}
	}
}

func TestEnsureReadySkipsCached(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "encoder.pt"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager("models", dir, []string{"encoder.pt"}, nil)
	m.download = func(ctx context.Context, bucket, key, dest string) error {
		t.Fatalf("unexpected download of %s", key)
		return nil
	}
	if err := m.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
}

func TestEnsureReadyRunsOnce(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	calls := 0
	m := NewManager("models", dir, []string{"encoder.pt"}, nil)
	m.download = func(ctx context.Context, bucket, key, dest string) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return os.WriteFile(dest, []byte("weights"), 0o644)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.EnsureReady(context.Background())
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Fatalf("download ran %d times, want 1", calls)
	}
}

func TestEnsureReadyErrorIsSticky(t *testing.T) {
	m := NewManager("models", t.TempDir(), []string{"encoder.pt"}, nil)
	boom := errors.New("bucket unreachable")
	m.download = func(ctx context.Context, bucket, key, dest string) error {
		return boom
	}
	if err := m.EnsureReady(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
	m.download = func(ctx context.Context, bucket, key, dest string) error {
		t.Fatal("download must not rerun after failure")
		return nil
	}
	if err := m.EnsureReady(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("second call got %v, want first failure", err)
	}
}

func TestPath(t *testing.T) {
	m := NewManager("models", "/var/cache/scorelib", nil, nil)
	if got := m.Path("encoder.pt"); got != filepath.Join("/var/cache/scorelib", "encoder.pt") {
		t.Fatalf("Path = %q", got)
	}
}
