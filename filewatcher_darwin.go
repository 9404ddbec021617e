// Completion: 100% - Platform-specific module complete
//go:build darwin

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// FileWatcher reports changed files through kqueue. Calls to onChange are
// debounced per path.
type FileWatcher struct {
	kq          int
	watchMap    map[int]string
	paths       map[string]int
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	onChange    func(string)
	delay       time.Duration
	done        chan struct{}
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue failed: %v", err)
	}

	return &FileWatcher{
		kq:          kq,
		watchMap:    make(map[int]string),
		paths:       make(map[string]int),
		debounceMap: make(map[string]*time.Timer),
		onChange:    onChange,
		delay:       500 * time.Millisecond,
		done:        make(chan struct{}),
	}, nil
}

// AddFile starts watching path. Adding a watched path again is a no-op.
func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	_, watched := fw.paths[absPath]
	fw.mu.Unlock()
	if watched {
		return nil
	}

	fd, err := unix.Open(absPath, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", absPath, err)
	}

	event := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_VNODE,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
		Fflags: unix.NOTE_WRITE | unix.NOTE_ATTRIB | unix.NOTE_DELETE | unix.NOTE_RENAME,
	}

	_, err = unix.Kevent(fw.kq, []unix.Kevent_t{event}, nil, nil)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("failed to add kevent for %s: %v", absPath, err)
	}

	fw.mu.Lock()
	fw.watchMap[fd] = absPath
	fw.paths[absPath] = fd
	fw.mu.Unlock()

	return nil
}

// Watch blocks, dispatching change events until Close is called
func (fw *FileWatcher) Watch() {
	events := make([]unix.Kevent_t, 10)
	timeout := unix.NsecToTimespec(int64(500 * time.Millisecond))

	for {
		select {
		case <-fw.done:
			return
		default:
		}

		n, err := unix.Kevent(fw.kq, nil, events, &timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EBADF {
				return
			}
			if VerboseMode {
				fmt.Fprintf(os.Stderr, "Error reading kevent: %v\n", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for i := 0; i < n; i++ {
			event := events[i]
			fd := int(event.Ident)

			fw.mu.Lock()
			path := fw.watchMap[fd]
			if event.Fflags&(unix.NOTE_DELETE|unix.NOTE_RENAME) != 0 {
				// The file was removed or replaced; the next AddFile
				// watches the new one.
				unix.Close(fd)
				delete(fw.watchMap, fd)
				delete(fw.paths, path)
			}
			fw.mu.Unlock()

			if path != "" {
				fw.debouncedCallback(path)
			}
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
	fw.mu.Lock()
	defer fw.mu.Unlock()

	select {
	case <-fw.done:
		return nil
	default:
	}
	close(fw.done)
	for _, timer := range fw.debounceMap {
		timer.Stop()
	}
	for fd := range fw.watchMap {
		unix.Close(fd)
	}

	return unix.Close(fw.kq)
}
