// Package file watches a single file on disk as a monitorable resource.
// Change notifications come from fsnotify on the file's parent directory;
// reads hash the file contents so spurious notifications that did not
// alter the file still produce an identical snapshot.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/rillflow/rill/internal/output"
)

// Snapshot is the observed state of the watched file.
type Snapshot struct {
	Size    int64
	ModTime time.Time
	Digest  uint64 // xxhash64 of the contents
}

// Equal reports whether two snapshots describe identical file states.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime) && s.Digest == o.Digest
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s xxh64:%016x", humanize.Bytes(uint64(s.Size)), s.Digest)
}

// Driver implements the monitor driver contract for one file path.
type Driver struct {
	path string
}

// New creates a driver for the given path. The file does not need to
// exist yet; a missing file reads as an error value and a later creation
// fires a notification.
func New(path string) *Driver {
	return &Driver{path: filepath.Clean(path)}
}

// Describe identifies the watched file in traces.
func (d *Driver) Describe() string { return "file:" + d.path }

// Read stats and hashes the file. Failures are values, not Go errors: a
// missing or unreadable file is part of the pipeline's observable state.
func (d *Driver) Read(ctx context.Context) output.Output[Snapshot] {
	info, err := os.Stat(d.path)
	if err != nil {
		return output.Errorf[Snapshot]("stat %s: %v", d.path, err)
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return output.Errorf[Snapshot]("read %s: %v", d.path, err)
	}
	return output.Ok(Snapshot{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Digest:  xxhash.Sum64(data),
	})
}

// Watch registers notify for any fsnotify event on the target path. The
// parent directory is watched rather than the file itself so removal and
// re-creation keep notifying. If the watcher cannot be established the
// subscription is a no-op and the problem stays visible through Read.
func (d *Driver) Watch(notify func()) (unwatch func()) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("file watch unavailable", "path", d.path, "error", err)
		return func() {}
	}
	if err := w.Add(filepath.Dir(d.path)); err != nil {
		slog.Warn("file watch unavailable", "path", d.path, "error", err)
		_ = w.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == d.path {
					notify()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// Force a re-read; Read will surface whatever is wrong.
				notify()
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}
}
