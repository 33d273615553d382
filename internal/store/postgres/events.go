package postgres

import (
	"context"
	"strconv"

	"github.com/mysbc/sbcadmin/internal/model"
)

const (
	eventColumns = `id, organization_id, trace_id, topic, payload, created_at`

	executionColumns = `id, organization_id, trace_id, flow_id, node_id,
		status, details, created_at`
)

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, organization_id, trace_id, topic, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID,
		e.OrganizationID,
		nullString(e.TraceID),
		e.Topic,
		jsonbBytes(e.Payload),
		e.CreatedAt,
	)
	return err
}

func queryListEvents(ctx context.Context, db executor, orgID string, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2`,
		orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func queryRecordExecution(ctx context.Context, db executor, e *model.Execution) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO executions (
			id, organization_id, trace_id, flow_id, node_id, status, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID,
		e.OrganizationID,
		e.TraceID,
		nullString(e.FlowID),
		nullString(e.NodeID),
		string(e.Status),
		jsonbBytes(e.Details),
		e.CreatedAt,
	)
	return err
}

func queryListExecutions(ctx context.Context, db executor, orgID, traceID string, limit int) ([]*model.Execution, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + executionColumns + ` FROM executions WHERE organization_id = $1`
	args := []any{orgID}
	if traceID != "" {
		q += ` AND trace_id = $2`
		args = append(args, traceID)
	}
	q += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*model.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}
