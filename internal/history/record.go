package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rillflow/rill/internal/engine"
	"github.com/rillflow/rill/internal/output"
)

// CycleRecord is one persisted evaluation cycle.
type CycleRecord struct {
	Seq        int64
	Token      string
	State      string // "ok" | "error" | "pending"
	Detail     string // rendered result
	Watches    []string
	RecordedAt time.Time
}

// Record inserts a cycle row. Uses ON CONFLICT(seq) DO NOTHING so a
// replayed cycle number is silently ignored rather than duplicated.
func (s *Store) Record(ctx context.Context, rec CycleRecord) error {
	watchesJSON, err := json.Marshal(rec.Watches)
	if err != nil {
		return fmt.Errorf("record cycle %d: %w", rec.Seq, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cycles (seq, token, state, detail, watches, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		rec.Seq,
		rec.Token,
		rec.State,
		rec.Detail,
		string(watchesJSON),
		rec.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record cycle %d: %w", rec.Seq, err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, token, state, detail, watches, recorded_at
		FROM cycles
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("read recent cycles: %w", err)
	}
	defer rows.Close()

	var recs []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var watchesJSON string
		var recordedAt int64
		if err := rows.Scan(&rec.Seq, &rec.Token, &rec.State, &rec.Detail, &watchesJSON, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		if err := json.Unmarshal([]byte(watchesJSON), &rec.Watches); err != nil {
			return nil, fmt.Errorf("decode watches for cycle %d: %w", rec.Seq, err)
		}
		rec.RecordedAt = time.UnixMilli(recordedAt).UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read recent cycles: %w", err)
	}
	return recs, nil
}

// LastSeq returns the highest recorded cycle number, or 0 for an empty
// store. Lets a restarted engine resume its clock past existing history.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM cycles`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read last cycle seq: %w", err)
	}
	return seq, nil
}

// Recorder adapts the store to the engine's trace contract. Recording
// failures are logged and dropped: tracing must never take down the run
// loop.
func Recorder[R any](s *Store) engine.TraceFunc[R] {
	return func(cycle engine.Cycle, result output.Output[R], watches []engine.Watch) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rec := CycleRecord{
			Seq:        cycle.Seq,
			Token:      cycle.Token,
			State:      result.State().String(),
			Detail:     result.String(),
			Watches:    engine.DescribeAll(watches),
			RecordedAt: time.Now(),
		}
		if err := s.Record(ctx, rec); err != nil {
			slog.Error("record cycle failed", "seq", cycle.Seq, "error", err)
		}
	}
}
