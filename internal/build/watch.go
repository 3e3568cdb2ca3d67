package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long the watcher waits for a burst of file
// events to settle before recompiling.
const DebounceInterval = 100 * time.Millisecond

// BuildFunc receives every recompilation. out is nil when err is set or
// the template was removed.
type BuildFunc func(source string, out *Output, err error)

// Watcher recompiles templates as they change
type Watcher struct {
	builder *Builder
	fs      *fsnotify.Watcher
	onBuild BuildFunc
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching the source directory. Directories are registered
// before Watch returns; events are handled until ctx is cancelled or the
// watcher is closed.
func (b *Builder) Watch(ctx context.Context, onBuild BuildFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		builder: b,
		fs:      fw,
		onBuild: onBuild,
		done:    make(chan struct{}),
	}
	if err := w.addTree(b.sourceDir()); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run(ctx)
	return w, nil
}

// Done is closed once the watcher has stopped
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops the watcher
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() { err = w.fs.Close() })
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.Close()

	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	// latest event per file wins within a burst
	pending := make(map[string]fsnotify.Op)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.builder.log.Warn("watch failed", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.builder.isTemplate(event.Name) {
				continue
			}
			pending[event.Name] = event.Op
			debounce.Reset(DebounceInterval)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.builder.log.Warn("watcher error", "error", err)

		case <-debounce.C:
			for name, op := range pending {
				w.handle(name, op)
			}
			clear(pending)
		}
	}
}

func (w *Watcher) handle(name string, op fsnotify.Op) {
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			err := w.builder.Remove(name)
			if w.onBuild != nil {
				w.onBuild(name, nil, err)
			}
			return
		}
	}

	out, err := w.builder.ProcessFile(name)
	if w.onBuild != nil {
		w.onBuild(name, out, err)
	}
}
