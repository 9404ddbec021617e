// Completion: 100% - Platform-specific module complete
//go:build linux

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const watchMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_ATTRIB | unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// FileWatcher reports changed files through inotify. Calls to onChange are
// debounced per path.
type FileWatcher struct {
	fd          int
	watchMap    map[int]string
	paths       map[string]int
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	onChange    func(string)
	delay       time.Duration
	done        chan struct{}
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %v", err)
	}

	return &FileWatcher{
		fd:          fd,
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

	wd, err := unix.InotifyAddWatch(fw.fd, absPath, watchMask)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %v", absPath, err)
	}

	fw.mu.Lock()
	fw.watchMap[wd] = absPath
	fw.paths[absPath] = wd
	fw.mu.Unlock()

	return nil
}

// Watch blocks, dispatching change events until Close is called
func (fw *FileWatcher) Watch() {
	buf := make([]byte, (unix.SizeofInotifyEvent+unix.NAME_MAX+1)*16)

	for {
		select {
		case <-fw.done:
			return
		default:
		}

		n, err := unix.Read(fw.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if err == unix.EBADF {
				return
			}
			if VerboseMode {
				fmt.Fprintf(os.Stderr, "Error reading inotify events: %v\n", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		offset := 0
		for offset+unix.SizeofInotifyEvent <= n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			fw.mu.Lock()
			path := fw.watchMap[int(event.Wd)]
			if event.Mask&unix.IN_IGNORED != 0 {
				// The file was removed or replaced; the next AddFile
				// watches the new one.
				delete(fw.watchMap, int(event.Wd))
				delete(fw.paths, path)
			}
			fw.mu.Unlock()

			if path != "" && event.Mask&watchMask != 0 {
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
	return unix.Close(fw.fd)
}
