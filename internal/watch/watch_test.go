package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions() Options {
	return Options{
		Debounce: 20 * time.Millisecond,
		Retries:  3,
		Interval: time.Millisecond,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastOptions(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("partial write")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	errBroken := errors.New("broken mesh")
	var calls int
	err := Retry(context.Background(), fastOptions(), func(context.Context) error {
		calls++
		return errBroken
	})
	if !errors.Is(err, errBroken) {
		t.Errorf("Retry error = %v, want %v", err, errBroken)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 1 + 3 retries", calls)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.obj")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{path, other} {
		if err := os.WriteFile(p, []byte("v 0 0 0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 4)
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{path}, fastOptions(), func(context.Context) error {
			calls.Add(1)
			reloaded <- struct{}{}
			return nil
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v 1 1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1 (writes debounced, other files ignored)", n)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), []string{"/nonexistent/dir/model.obj"}, fastOptions(), func(context.Context) error {
		return nil
	})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
