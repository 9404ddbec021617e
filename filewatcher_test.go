package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWatcherReportsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdk.lst")
	if err := os.WriteFile(path, []byte("a.h\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 4)
	fw, err := NewFileWatcher(func(p string) { changed <- p })
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Close()
	fw.delay = 10 * time.Millisecond

	if err := fw.AddFile(path); err != nil {
		t.Fatal(err)
	}
	if err := fw.AddFile(path); err != nil {
		t.Fatalf("adding a watched file again: %v", err)
	}
	go fw.Watch()

	if err := os.WriteFile(path, []byte("a.h\nb.h\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed path = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
