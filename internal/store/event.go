package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// sequenceCounter manages the global monotonic sequence number shared across
// all event tables. Per-table auto-increment IDs can't order events of
// different types, so every event also gets one increasing sequence.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level. The table is created by the
// initial migration.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo with raw SQL and the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func unixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// window turns QueryOpts into a WHERE fragment over sequence and timestamp.
func (o QueryOpts) window() (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if o.After > 0 {
		clause += " AND sequence > ?"
		args = append(args, o.After)
	}
	if o.Before > 0 {
		clause += " AND sequence < ?"
		args = append(args, o.Before)
	}
	if !o.From.IsZero() {
		clause += " AND timestamp >= ?"
		args = append(args, unixMillis(o.From))
	}
	if !o.To.IsZero() {
		clause += " AND timestamp <= ?"
		args = append(args, unixMillis(o.To))
	}
	return clause, args
}

func (o QueryOpts) limit() string {
	if o.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", o.Limit)
	}
	return ""
}
