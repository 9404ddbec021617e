// Completion: 100% - Platform-specific module complete
//go:build !linux && !darwin

package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls modification times where no kernel notification
// interface is wired up. Calls to onChange are debounced per path.
type FileWatcher struct {
	watchMap    map[string]time.Time
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	onChange    func(string)
	delay       time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	return &FileWatcher{
		watchMap:    make(map[string]time.Time),
		debounceMap: make(map[string]*time.Timer),
		onChange:    onChange,
		delay:       500 * time.Millisecond,
		stopChan:    make(chan struct{}),
	}, nil
}

// AddFile starts watching path. Adding a watched path again is a no-op.
func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	if _, watched := fw.watchMap[absPath]; !watched {
		fw.watchMap[absPath] = info.ModTime()
	}
	fw.mu.Unlock()

	return nil
}

// Watch blocks, polling every watched file until Close is called
func (fw *FileWatcher) Watch() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fw.checkFiles()
		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) checkFiles() {
	fw.mu.Lock()
	paths := make([]string, 0, len(fw.watchMap))
	for path := range fw.watchMap {
		paths = append(paths, path)
	}
	fw.mu.Unlock()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		fw.mu.Lock()
		lastMod := fw.watchMap[path]
		fw.watchMap[path] = info.ModTime()
		fw.mu.Unlock()

		if info.ModTime().After(lastMod) {
			fw.debouncedCallback(path)
		}
	}
}

func (fw *FileWatcher) debouncedCallback(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.debounceMap[path]; exists {
		timer.Stop()
	}

	fw.debounceMap[path] = time.AfterFunc(fw.delay, func() {
		fw.mu.Lock()
		delete(fw.debounceMap, path)
		fw.mu.Unlock()
		fw.onChange(path)
	})
}

func (fw *FileWatcher) Close() error {
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
	})
	return nil
}
