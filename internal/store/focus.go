package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// focusRepo implements FocusRepo.
type focusRepo struct {
	db *sql.DB
}

// Save stores a session, assigning an id when it has none.
func (r *focusRepo) Save(ctx context.Context, s FocusSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO focus_sessions
		(id, started_at, ended_at, duration_minutes, elapsed_seconds, overtime_seconds, subtopic_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, unixMillis(s.StartedAt), unixMillis(s.EndedAt), s.DurationMinutes,
		s.ElapsedSeconds, s.OvertimeSeconds, s.SubtopicID,
	)
	if err != nil {
		return fmt.Errorf("save focus session: %w", err)
	}
	return nil
}

// Recent returns the latest sessions, newest first.
func (r *focusRepo) Recent(ctx context.Context, limit int) ([]FocusSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, started_at, ended_at, duration_minutes,
		elapsed_seconds, overtime_seconds, subtopic_id
		FROM focus_sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query focus sessions: %w", err)
	}
	defer rows.Close()

	var out []FocusSession
	for rows.Next() {
		var (
			s          FocusSession
			start, end int64
		)
		if err := rows.Scan(&s.ID, &start, &end, &s.DurationMinutes, &s.ElapsedSeconds,
			&s.OvertimeSeconds, &s.SubtopicID); err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		s.StartedAt = fromMillis(start)
		s.EndedAt = fromMillis(end)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *focusRepo) Totals(ctx context.Context) (FocusTotals, error) {
	var t FocusTotals
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(elapsed_seconds), 0),
		COALESCE(SUM(overtime_seconds), 0) FROM focus_sessions`).
		Scan(&t.Sessions, &t.FocusedSeconds, &t.OvertimeSeconds)
	if err != nil {
		return FocusTotals{}, fmt.Errorf("query focus totals: %w", err)
	}
	return t, nil
}
