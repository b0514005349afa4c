package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendStepAttempt(ctx context.Context, data StepAttemptEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO step_attempt_events
		(sequence, timestamp, course_id, subtopic_id, step_index, step_kind, action, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, unixMillis(time.Now()), data.CourseID, data.SubtopicID, data.StepIndex,
		data.StepKind, data.Action, data.Outcome, data.Detail,
	)
	if err != nil {
		return fmt.Errorf("save step attempt event: %w", err)
	}
	return nil
}

func (r *eventRepo) AttemptStatsByKind(ctx context.Context) ([]AttemptStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT step_kind, COUNT(*),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		FROM step_attempt_events GROUP BY step_kind ORDER BY step_kind`,
		OutcomeCorrect, OutcomeIncorrect, OutcomeError)
	if err != nil {
		return nil, fmt.Errorf("query attempt stats: %w", err)
	}
	defer rows.Close()

	var out []AttemptStats
	for rows.Next() {
		var s AttemptStats
		if err := rows.Scan(&s.StepKind, &s.Attempts, &s.Correct, &s.Incorrect, &s.Errors); err != nil {
			return nil, fmt.Errorf("scan attempt stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
