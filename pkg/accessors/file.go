package accessors

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/openfroyo/await/pkg/deferred"
)

// File probes for the presence of a file. The resolved value is the file's
// FileInfo, so predicates can wait on size or mode as well as existence.
type File struct {
	// Path is the file to probe.
	Path string
}

// NewFile creates a file accessor for the given path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Resolve implements deferred.Deferred. A missing file is transient: it may
// be created later. A permission failure is permanent: polling will not
// grant access.
func (f *File) Resolve(ctx context.Context) (fs.FileInfo, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, deferred.NewTransientError("file does not exist", err).WithSource(f.String())
		}
		if os.IsPermission(err) {
			return nil, deferred.NewPermanentError("permission denied", err).WithSource(f.String())
		}
		return nil, deferred.NewTransientError("stat failed", err).WithSource(f.String())
	}
	return info, nil
}

// String implements fmt.Stringer.
func (f *File) String() string {
	return fmt.Sprintf("file://%s", f.Path)
}

// WatchedFile is a file accessor backed by an fsnotify watcher on the
// parent directory. The watcher goroutine flips a flag when the file
// appears, so Resolve stays a cheap non-blocking check even on filesystems
// where stat is expensive (network mounts). Close releases the watcher.
type WatchedFile struct {
	path    string
	ready   atomic.Bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchFile creates a watched-file accessor. The parent directory must
// exist; watching a file in a directory that itself does not exist yet is a
// permanent failure.
func WatchFile(path string) (*WatchedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, deferred.NewPermanentError("resolving path", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, deferred.NewPermanentError("creating watcher", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, deferred.NewPermanentError("watching parent directory", err)
	}

	w := &WatchedFile{
		path:    abs,
		watcher: watcher,
		done:    make(chan struct{}),
	}

	// The file may already exist before the watch was registered.
	if _, err := os.Stat(abs); err == nil {
		w.ready.Store(true)
	}

	go w.run()
	return w, nil
}

func (w *WatchedFile) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name == w.path && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.ready.Store(true)
			}
			if ev.Name == w.path && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.ready.Store(false)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Resolve implements deferred.Deferred. It consults the watcher flag first
// and only stats on a positive signal, keeping the unready path free of
// filesystem calls.
func (w *WatchedFile) Resolve(ctx context.Context) (fs.FileInfo, error) {
	if !w.ready.Load() {
		return nil, deferred.NewTransientError("file not yet created", nil).WithSource(w.String())
	}

	info, err := os.Stat(w.path)
	if err != nil {
		// The flag raced with a removal; fall back to waiting.
		w.ready.Store(false)
		return nil, deferred.NewTransientError("file disappeared", err).WithSource(w.String())
	}
	return info, nil
}

// Close stops the watcher goroutine and releases the underlying watch.
func (w *WatchedFile) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// String implements fmt.Stringer.
func (w *WatchedFile) String() string {
	return fmt.Sprintf("watch://%s", w.path)
}
