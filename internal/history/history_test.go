package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rillflow/rill/internal/engine"
	"github.com/rillflow/rill/internal/output"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cycles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, CycleRecord{
		Seq: 1, Token: "tok-1", State: "pending", Detail: "pending",
		Watches: []string{"file:/a"}, RecordedAt: base,
	}))
	require.NoError(t, s.Record(ctx, CycleRecord{
		Seq: 2, Token: "tok-2", State: "ok", Detail: "ok: done",
		Watches: []string{"file:/a", "every:30s"}, RecordedAt: base.Add(time.Minute),
	}))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest first.
	assert.Equal(t, int64(2), recs[0].Seq)
	assert.Equal(t, "tok-2", recs[0].Token)
	assert.Equal(t, "ok", recs[0].State)
	assert.Equal(t, []string{"file:/a", "every:30s"}, recs[0].Watches)
	assert.Equal(t, base.Add(time.Minute), recs[0].RecordedAt)

	assert.Equal(t, int64(1), recs[1].Seq)
}

func TestStore_RecentHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 5; seq++ {
		require.NoError(t, s.Record(ctx, CycleRecord{
			Seq: seq, Token: "t", State: "ok", Detail: "ok",
			Watches: []string{}, RecordedAt: time.Now(),
		}))
	}

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(5), recs[0].Seq)
	assert.Equal(t, int64(4), recs[1].Seq)
}

func TestStore_RecordIdempotentPerSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := CycleRecord{Seq: 1, Token: "first", State: "ok", Detail: "ok",
		Watches: []string{}, RecordedAt: time.Now()}
	require.NoError(t, s.Record(ctx, rec))

	rec.Token = "second"
	require.NoError(t, s.Record(ctx, rec))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "first", recs[0].Token, "duplicate seq must be ignored")
}

func TestStore_LastSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.Record(ctx, CycleRecord{
		Seq: 7, Token: "t", State: "ok", Detail: "ok",
		Watches: []string{}, RecordedAt: time.Now(),
	}))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestStore_OpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), CycleRecord{
		Seq: 1, Token: "t", State: "ok", Detail: "ok",
		Watches: []string{}, RecordedAt: time.Now(),
	}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	recs, err := s2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

type tickWatch struct{ name string }

func (w tickWatch) Describe() string         { return w.name }
func (w tickWatch) Changed() <-chan struct{} { return nil }
func (w tickWatch) Cancel()                  {}
func (w tickWatch) Release()                 {}

func TestRecorder_WritesTraceRows(t *testing.T) {
	s := openTestStore(t)

	trace := Recorder[int](s)
	trace(
		engine.Cycle{Seq: 1, Token: "tok-1"},
		output.Ok(41),
		[]engine.Watch{tickWatch{name: "var:x"}},
	)
	trace(
		engine.Cycle{Seq: 2, Token: "tok-2"},
		output.Error[int]("boom"),
		[]engine.Watch{tickWatch{name: "var:x"}, tickWatch{name: "file:/a"}},
	)

	recs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "error", recs[0].State)
	assert.Equal(t, "error: boom", recs[0].Detail)
	assert.Equal(t, []string{"var:x", "file:/a"}, recs[0].Watches)

	assert.Equal(t, "ok", recs[1].State)
	assert.Equal(t, "ok: 41", recs[1].Detail)
}
