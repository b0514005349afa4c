package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendGatewayCall(ctx context.Context, data GatewayCallEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO gateway_call_events
		(sequence, timestamp, operation, status_code, latency_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seqNum, unixMillis(time.Now()), data.Operation, data.StatusCode, data.LatencyMs,
		boolInt(data.Success), data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save gateway call event: %w", err)
	}
	return nil
}

func (r *eventRepo) GatewayCallStats(ctx context.Context) ([]GatewayCallStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT operation, COUNT(*),
		SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)
		FROM gateway_call_events GROUP BY operation ORDER BY operation`)
	if err != nil {
		return nil, fmt.Errorf("query gateway stats: %w", err)
	}
	defer rows.Close()

	var out []GatewayCallStats
	for rows.Next() {
		var s GatewayCallStats
		if err := rows.Scan(&s.Operation, &s.Calls, &s.Failures, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan gateway stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
