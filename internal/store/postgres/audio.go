package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mysbc/sbcadmin/internal/model"
)

const (
	audioColumns = `id, organization_id, name, type, filename, mime_type,
		size_bytes, storage_path, engine_path, tts_text, tts_voice,
		tts_chars_used, created_at`

	quotaColumns = `organization_id, month, tts_units_limit, flow_exec_limit,
		tts_units_used, flow_exec_used, updated_at`
)

func queryCreateAudio(ctx context.Context, db executor, a *model.Audio) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO audios (
			id, organization_id, name, type, filename, mime_type,
			size_bytes, storage_path, engine_path, tts_text, tts_voice,
			tts_chars_used, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID,
		a.OrganizationID,
		a.Name,
		string(a.Type),
		a.Filename,
		a.MimeType,
		a.SizeBytes,
		nullString(a.StoragePath),
		a.EnginePath,
		nullString(a.TTSText),
		nullString(a.TTSVoice),
		a.TTSCharsUsed,
		a.CreatedAt,
	)
	return err
}

func queryGetAudio(ctx context.Context, db executor, orgID, id string) (*model.Audio, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+audioColumns+` FROM audios WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	return scanAudio(row)
}

func queryListAudio(ctx context.Context, db executor, orgID string, audioType model.AudioType) ([]*model.Audio, error) {
	q := `SELECT ` + audioColumns + ` FROM audios WHERE organization_id = $1`
	args := []any{orgID}
	if audioType != "" {
		q += ` AND type = $2`
		args = append(args, string(audioType))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audios []*model.Audio
	for rows.Next() {
		a, err := scanAudio(rows)
		if err != nil {
			return nil, err
		}
		audios = append(audios, a)
	}
	return audios, rows.Err()
}

func queryDeleteAudio(ctx context.Context, db executor, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM audios WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// Quotas

func queryGetQuota(ctx context.Context, db executor, orgID, month string) (*model.Quota, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+quotaColumns+` FROM quotas WHERE organization_id = $1 AND month = $2`,
		orgID, month)
	q, err := scanQuota(row)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	// No row yet this month: the organization is on the default limits with
	// zero usage. Callers only get a persisted row once usage is added.
	return &model.Quota{
		OrganizationID: orgID,
		Month:          month,
		Limits: model.QuotaLimits{
			TTSUnits: model.DefaultTTSUnits,
			FlowExec: model.DefaultFlowExec,
		},
	}, nil
}

func queryAddQuotaUsage(ctx context.Context, db executor, orgID, month string, ttsUnits, flowExec int) (*model.Quota, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO quotas (
			organization_id, month, tts_units_limit, flow_exec_limit,
			tts_units_used, flow_exec_used, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (organization_id, month) DO UPDATE SET
			tts_units_used = quotas.tts_units_used + EXCLUDED.tts_units_used,
			flow_exec_used = quotas.flow_exec_used + EXCLUDED.flow_exec_used,
			updated_at = NOW()
		RETURNING `+quotaColumns,
		orgID, month,
		model.DefaultTTSUnits, model.DefaultFlowExec,
		ttsUnits, flowExec,
	)
	return scanQuota(row)
}
