package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rillflow/rill/internal/output"
)

func TestDriver_ReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	d := New(path)
	o := d.Read(context.Background())

	snap, ok := o.Value()
	require.True(t, ok, "expected ok, got %s", o)
	assert.Equal(t, int64(5), snap.Size)
	assert.NotZero(t, snap.Digest)
	assert.False(t, snap.ModTime.IsZero())
}

func TestDriver_ReadMissingFileIsErrorValue(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "absent"))

	o := d.Read(context.Background())
	require.Equal(t, output.StateError, o.State())

	msg, _ := o.ErrorMessage()
	assert.Contains(t, msg, "absent")
}

func TestDriver_EqualSnapshotsForIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0o644))

	d := New(a)
	s1, ok := d.Read(context.Background()).Value()
	require.True(t, ok)
	s2, ok := d.Read(context.Background()).Value()
	require.True(t, ok)

	assert.True(t, s1.Equal(s2))
}

func TestDriver_WatchNotifiesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	d := New(path)
	var notified atomic.Int32
	unwatch := d.Watch(func() { notified.Add(1) })
	defer unwatch()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool { return notified.Load() > 0 },
		3*time.Second, 10*time.Millisecond, "write did not notify")
}

func TestDriver_WatchNotifiesOnCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later")

	d := New(path)
	var notified atomic.Int32
	unwatch := d.Watch(func() { notified.Add(1) })
	defer unwatch()

	require.NoError(t, os.WriteFile(path, []byte("now"), 0o644))

	require.Eventually(t, func() bool { return notified.Load() > 0 },
		3*time.Second, 10*time.Millisecond, "creation did not notify")
}

func TestDriver_WatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	d := New(path)
	var notified atomic.Int32
	unwatch := d.Watch(func() { notified.Add(1) })
	defer unwatch()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, notified.Load(), "sibling write must not notify")
}

func TestDriver_UnwatchStopsNotifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	d := New(path)
	var notified atomic.Int32
	unwatch := d.Watch(func() { notified.Add(1) })
	unwatch()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, notified.Load(), "notification after unwatch")
}

func TestDriver_Describe(t *testing.T) {
	d := New("/tmp/x")
	assert.Equal(t, "file:/tmp/x", d.Describe())
}
