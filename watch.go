// Completion: 100% - Watch mode complete
package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/xyproto/picosym/internal/config"
)

// cmdWatch runs the batch configuration once and then again every time
// one of its inputs changes. The configuration is reloaded on each run so
// that newly listed inputs are watched too.
func cmdWatch(ctx *CommandContext, args []string) error {
	path, err := configFlag("watch", args)
	if err != nil {
		return err
	}
	if _, err := config.Load(path); err != nil {
		return err
	}

	var mu sync.Mutex
	var watcher *FileWatcher

	rerun := func(reason string) {
		mu.Lock()
		defer mu.Unlock()

		ctx.Report.Progressf("%s\n", reason)
		cfg, err := config.Load(path)
		if err != nil {
			ctx.Report.Error(err)
			return
		}
		if err := cfg.Run(ctx.Report); err != nil {
			ctx.Report.Error(err)
		}
		for _, in := range cfg.Inputs() {
			if err := watcher.AddFile(in); err != nil {
				ctx.Report.Debugf("not watching %s: %v\n", in, err)
			}
		}
	}

	watcher, err = NewFileWatcher(func(changed string) {
		rerun(fmt.Sprintf("File changed: %s", filepath.Base(changed)))
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %v", err)
	}
	defer watcher.Close()

	stop := setupReloadSignal(rerun)
	defer stop()

	rerun("Generating from " + path)
	ctx.Report.Progressf("Watching for changes, press Ctrl-C to stop\n")
	watcher.Watch()
	return nil
}
