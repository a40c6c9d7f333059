package stimulus

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stimuli.txt")
	if err := os.WriteFile(path, []byte("나는 간다\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("나는 간다\n비가 온다\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case list := <-w.Lists():
		if len(list.Sentences) != 2 {
			t.Errorf("reloaded %d sentences, want 2", len(list.Sentences))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherCloseEndsStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stimuli.txt")
	if err := os.WriteFile(path, []byte("나는 간다\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Leave a reload in flight so Close races a pending debounce timer.
	if err := os.WriteFile(path, []byte("하나 둘\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// A consumer ranging over Lists must terminate rather than block
	// forever: the channel drains and then reports closed.
	for {
		select {
		case _, ok := <-w.Lists():
			if !ok {
				goto closed
			}
		case <-time.After(time.Second):
			t.Fatal("Lists channel not closed after Close")
		}
	}
closed:

	// Run start and window shutdown may both close the watcher.
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stimuli.txt")
	if err := os.WriteFile(path, []byte("나는 간다\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Writes to other files in the watched directory must not reload.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Lists():
		t.Fatal("unexpected reload for sibling file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherLatestWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stimuli.txt")
	if err := os.WriteFile(path, []byte("나는 간다\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Two edits without a consumer: the channel holds only the newest.
	if err := os.WriteFile(path, []byte("하나 둘\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("하나 둘\n셋 넷\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	select {
	case list := <-w.Lists():
		if len(list.Sentences) != 2 {
			t.Errorf("got %d sentences, want the newest list with 2", len(list.Sentences))
		}
	case <-time.After(time.Second):
		t.Fatal("no reload observed")
	}
}
