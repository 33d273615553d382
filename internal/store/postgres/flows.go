package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

const (
	flowColumns = `id, organization_id, name, status, version, graph,
		created_at, updated_at, published_at`

	flowVersionColumns = `id, flow_id, organization_id, version, graph,
		engine_ref, created_at`
)

func graphJSON(g model.Graph) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return data, nil
}

func queryCreateFlow(ctx context.Context, db executor, f *model.Flow) error {
	graph, err := graphJSON(f.Graph)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO flows (
			id, organization_id, name, status, version, graph,
			created_at, updated_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID,
		f.OrganizationID,
		f.Name,
		string(f.Status),
		f.Version,
		graph,
		f.CreatedAt,
		f.UpdatedAt,
		nullTimePtr(f.PublishedAt),
	)
	return err
}

func queryGetFlow(ctx context.Context, db executor, orgID, id string) (*model.Flow, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+flowColumns+` FROM flows WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	return scanFlow(row)
}

// queryGetFlowForUpdate locks the flow row for the rest of the transaction.
// Publish uses this so two concurrent publishes serialize on the version
// bump instead of racing the read-then-write.
func queryGetFlowForUpdate(ctx context.Context, db executor, orgID, id string) (*model.Flow, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+flowColumns+` FROM flows WHERE id = $1 AND organization_id = $2 FOR UPDATE`,
		id, orgID)
	return scanFlow(row)
}

func queryListFlows(ctx context.Context, db executor, orgID string, filter model.FlowFilter) ([]*model.Flow, int, error) {
	whereClauses := []string{"organization_id = $1"}
	args := []any{orgID}
	argIdx := 1

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = "+nextArg())
		args = append(args, string(filter.Status))
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + flowColumns +
		" FROM flows WHERE " + strings.Join(whereClauses, " AND ") +
		" ORDER BY created_at DESC"

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []*model.Flow
	var total int
	for rows.Next() {
		f, t, err := scanFlowWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan flows: %w", err)
		}
		total = t
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan flows: %w", err)
	}
	return flows, total, nil
}

func queryUpdateFlow(ctx context.Context, db executor, f *model.Flow) error {
	graph, err := graphJSON(f.Graph)
	if err != nil {
		return err
	}
	return db.QueryRowContext(ctx, `
		UPDATE flows SET
			name = $3,
			status = $4,
			version = $5,
			graph = $6,
			updated_at = NOW(),
			published_at = $7
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`,
		f.ID,
		f.OrganizationID,
		f.Name,
		string(f.Status),
		f.Version,
		graph,
		nullTimePtr(f.PublishedAt),
	).Scan(&f.UpdatedAt)
}

func queryDeleteFlow(ctx context.Context, db executor, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM flows WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func querySaveFlowVersion(ctx context.Context, db executor, v *model.FlowVersion) error {
	graph, err := graphJSON(v.Graph)
	if err != nil {
		return err
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO flow_versions (flow_id, organization_id, version, graph, engine_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		v.FlowID,
		v.OrganizationID,
		v.Version,
		graph,
		nullString(v.EngineRef),
		v.CreatedAt,
	).Scan(&v.ID)
}

func queryGetFlowVersion(ctx context.Context, db executor, orgID, flowID string, version int) (*model.FlowVersion, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+flowVersionColumns+` FROM flow_versions
		WHERE flow_id = $1 AND organization_id = $2 AND version = $3`,
		flowID, orgID, version)
	return scanFlowVersion(row)
}

func queryListFlowVersions(ctx context.Context, db executor, orgID, flowID string) ([]*model.FlowVersion, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+flowVersionColumns+` FROM flow_versions
		WHERE flow_id = $1 AND organization_id = $2 ORDER BY version DESC`,
		flowID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*model.FlowVersion
	for rows.Next() {
		v, err := scanFlowVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
