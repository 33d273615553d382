package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

// Column lists used for SELECT statements, in scan order.
const (
	orgColumns = `id, name, slug, domain, webhook_base, admin_email,
		blocked, block_reason, created_at, updated_at`

	trunkColumns = `id, organization_id, name, host, enabled, username, secret,
		transport, srtp, proxy, registrar, expires, codecs, dtmf_mode,
		register, realm, from_user, from_domain, extension, register_proxy,
		retry_seconds, caller_id_in_from, ping, created_at, updated_at`

	inboundColumns = `id, organization_id, name, did_or_uri, caller_id_number,
		network_addr, context, priority, match_rules, target_flow_id, enabled,
		published_at, created_at, updated_at`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Organizations

func queryCreateOrganization(ctx context.Context, db executor, o *model.Organization) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO organizations (
			id, name, slug, domain, webhook_base, admin_email,
			blocked, block_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID,
		o.Name,
		o.Slug,
		o.Domain,
		nullString(o.WebhookBase),
		o.AdminEmail,
		o.Blocked,
		nullString(o.BlockReason),
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func queryGetOrganization(ctx context.Context, db executor, id string) (*model.Organization, error) {
	row := db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

func queryListOrganizations(ctx context.Context, db executor) ([]*model.Organization, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*model.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func queryUpdateOrganization(ctx context.Context, db executor, o *model.Organization) error {
	return db.QueryRowContext(ctx, `
		UPDATE organizations SET
			name = $2,
			slug = $3,
			domain = $4,
			webhook_base = $5,
			admin_email = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID,
		o.Name,
		o.Slug,
		o.Domain,
		nullString(o.WebhookBase),
		o.AdminEmail,
	).Scan(&o.UpdatedAt)
}

func querySetOrganizationBlocked(ctx context.Context, db executor, id string, blocked bool, reason string) (*model.Organization, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE organizations
		SET blocked = $2, block_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orgColumns,
		id, blocked, nullString(reason),
	)
	return scanOrganization(row)
}

func queryDeleteOrganization(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// Trunks

func queryUpsertTrunk(ctx context.Context, db executor, t *model.Trunk) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO trunks (
			id, organization_id, name, host, enabled, username, secret,
			transport, srtp, proxy, registrar, expires, codecs, dtmf_mode,
			register, realm, from_user, from_domain, extension, register_proxy,
			retry_seconds, caller_id_in_from, ping, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			host = EXCLUDED.host,
			enabled = EXCLUDED.enabled,
			username = EXCLUDED.username,
			secret = EXCLUDED.secret,
			transport = EXCLUDED.transport,
			srtp = EXCLUDED.srtp,
			proxy = EXCLUDED.proxy,
			registrar = EXCLUDED.registrar,
			expires = EXCLUDED.expires,
			codecs = EXCLUDED.codecs,
			dtmf_mode = EXCLUDED.dtmf_mode,
			register = EXCLUDED.register,
			realm = EXCLUDED.realm,
			from_user = EXCLUDED.from_user,
			from_domain = EXCLUDED.from_domain,
			extension = EXCLUDED.extension,
			register_proxy = EXCLUDED.register_proxy,
			retry_seconds = EXCLUDED.retry_seconds,
			caller_id_in_from = EXCLUDED.caller_id_in_from,
			ping = EXCLUDED.ping,
			updated_at = NOW()`,
		t.ID,
		t.OrganizationID,
		t.Name,
		t.Host,
		t.Enabled,
		nullString(t.Username),
		nullString(t.Secret),
		nullString(string(t.Transport)),
		nullString(string(t.Srtp)),
		nullString(t.Proxy),
		nullString(t.Registrar),
		t.Expires,
		nullString(strings.Join(t.Codecs, ",")),
		nullString(string(t.DtmfMode)),
		t.Register,
		nullString(t.Realm),
		nullString(t.FromUser),
		nullString(t.FromDomain),
		nullString(t.Extension),
		nullString(t.RegisterProxy),
		t.RetrySeconds,
		t.CallerIDInFrom,
		t.Ping,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func queryGetTrunk(ctx context.Context, db executor, orgID, id string) (*model.Trunk, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+trunkColumns+` FROM trunks WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	return scanTrunk(row)
}

func queryListTrunks(ctx context.Context, db executor, orgID string) ([]*model.Trunk, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+trunkColumns+` FROM trunks WHERE organization_id = $1 ORDER BY name`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trunks []*model.Trunk
	for rows.Next() {
		t, err := scanTrunk(rows)
		if err != nil {
			return nil, err
		}
		trunks = append(trunks, t)
	}
	return trunks, rows.Err()
}

func queryDeleteTrunk(ctx context.Context, db executor, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM trunks WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// Inbound routes

func queryUpsertInbound(ctx context.Context, db executor, in *model.Inbound) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO inbounds (
			id, organization_id, name, did_or_uri, caller_id_number,
			network_addr, context, priority, match_rules, target_flow_id,
			enabled, published_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			did_or_uri = EXCLUDED.did_or_uri,
			caller_id_number = EXCLUDED.caller_id_number,
			network_addr = EXCLUDED.network_addr,
			context = EXCLUDED.context,
			priority = EXCLUDED.priority,
			match_rules = EXCLUDED.match_rules,
			target_flow_id = EXCLUDED.target_flow_id,
			enabled = EXCLUDED.enabled,
			published_at = EXCLUDED.published_at,
			updated_at = NOW()`,
		in.ID,
		in.OrganizationID,
		in.Name,
		in.DidOrURI,
		nullString(in.CallerIDNumber),
		nullString(in.NetworkAddr),
		string(in.Context),
		in.Priority,
		jsonbBytes(in.MatchRules),
		nullString(in.TargetFlowID),
		in.Enabled,
		nullTimePtr(in.PublishedAt),
		in.CreatedAt,
		in.UpdatedAt,
	)
	return err
}

func queryGetInbound(ctx context.Context, db executor, orgID, id string) (*model.Inbound, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+inboundColumns+` FROM inbounds WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	return scanInbound(row)
}

func queryListInbounds(ctx context.Context, db executor, orgID string) ([]*model.Inbound, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+inboundColumns+` FROM inbounds WHERE organization_id = $1 ORDER BY priority, name`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inbounds []*model.Inbound
	for rows.Next() {
		in, err := scanInbound(rows)
		if err != nil {
			return nil, err
		}
		inbounds = append(inbounds, in)
	}
	return inbounds, rows.Err()
}

func queryDeleteInbound(ctx context.Context, db executor, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM inbounds WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// requireRowsAffected maps a zero-row DELETE/UPDATE to sql.ErrNoRows so the
// HTTP layer can answer 404.
func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
