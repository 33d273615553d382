package postgres

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/mysbc/sbcadmin/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanOrganization scans a single row into a model.Organization.
// The row must contain columns in the order defined by orgColumns.
func scanOrganization(row scannable) (*model.Organization, error) {
	var o model.Organization
	var webhookBase, blockReason sql.NullString
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Slug,
		&o.Domain,
		&webhookBase,
		&o.AdminEmail,
		&o.Blocked,
		&blockReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.WebhookBase = webhookBase.String
	o.BlockReason = blockReason.String
	return &o, nil
}

// scanTrunk scans a single row into a model.Trunk. Codecs are stored as a
// comma-joined string.
func scanTrunk(row scannable) (*model.Trunk, error) {
	var t model.Trunk
	var (
		username, secret, transport, srtp sql.NullString
		proxy, registrar, codecs, dtmf    sql.NullString
		realm, fromUser, fromDomain       sql.NullString
		extension, registerProxy          sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.Name,
		&t.Host,
		&t.Enabled,
		&username,
		&secret,
		&transport,
		&srtp,
		&proxy,
		&registrar,
		&t.Expires,
		&codecs,
		&dtmf,
		&t.Register,
		&realm,
		&fromUser,
		&fromDomain,
		&extension,
		&registerProxy,
		&t.RetrySeconds,
		&t.CallerIDInFrom,
		&t.Ping,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Username = username.String
	t.Secret = secret.String
	t.Transport = model.Transport(transport.String)
	t.Srtp = model.SrtpMode(srtp.String)
	t.Proxy = proxy.String
	t.Registrar = registrar.String
	t.DtmfMode = model.DtmfMode(dtmf.String)
	t.Realm = realm.String
	t.FromUser = fromUser.String
	t.FromDomain = fromDomain.String
	t.Extension = extension.String
	t.RegisterProxy = registerProxy.String
	if codecs.String != "" {
		t.Codecs = strings.Split(codecs.String, ",")
	}
	return &t, nil
}

// scanInbound scans a single row into a model.Inbound.
func scanInbound(row scannable) (*model.Inbound, error) {
	var in model.Inbound
	var (
		callerID, networkAddr, targetFlow sql.NullString
		matchRules                        []byte
		publishedAt                       sql.NullTime
	)
	err := row.Scan(
		&in.ID,
		&in.OrganizationID,
		&in.Name,
		&in.DidOrURI,
		&callerID,
		&networkAddr,
		&in.Context,
		&in.Priority,
		&matchRules,
		&targetFlow,
		&in.Enabled,
		&publishedAt,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	in.CallerIDNumber = callerID.String
	in.NetworkAddr = networkAddr.String
	in.TargetFlowID = targetFlow.String
	if len(matchRules) > 0 {
		in.MatchRules = json.RawMessage(matchRules)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		in.PublishedAt = &t
	}
	return &in, nil
}

// scanFlow scans a single row into a model.Flow, decoding the graph JSONB.
func scanFlow(row scannable) (*model.Flow, error) {
	var f model.Flow
	var (
		graph       []byte
		publishedAt sql.NullTime
	)
	err := row.Scan(
		&f.ID,
		&f.OrganizationID,
		&f.Name,
		&f.Status,
		&f.Version,
		&graph,
		&f.CreatedAt,
		&f.UpdatedAt,
		&publishedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(graph) > 0 {
		if err := json.Unmarshal(graph, &f.Graph); err != nil {
			return nil, err
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		f.PublishedAt = &t
	}
	return &f, nil
}

// scanFlowWithTotal scans a row that has a leading total_count column
// followed by the standard flow columns. Used by queryListFlows with
// COUNT(*) OVER().
func scanFlowWithTotal(row scannable) (*model.Flow, int, error) {
	var total int
	var f model.Flow
	var (
		graph       []byte
		publishedAt sql.NullTime
	)
	err := row.Scan(
		&total,
		&f.ID,
		&f.OrganizationID,
		&f.Name,
		&f.Status,
		&f.Version,
		&graph,
		&f.CreatedAt,
		&f.UpdatedAt,
		&publishedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	if len(graph) > 0 {
		if err := json.Unmarshal(graph, &f.Graph); err != nil {
			return nil, 0, err
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		f.PublishedAt = &t
	}
	return &f, total, nil
}

// scanFlowVersion scans a single row into a model.FlowVersion.
func scanFlowVersion(row scannable) (*model.FlowVersion, error) {
	var v model.FlowVersion
	var (
		graph     []byte
		engineRef sql.NullString
	)
	err := row.Scan(
		&v.ID,
		&v.FlowID,
		&v.OrganizationID,
		&v.Version,
		&graph,
		&engineRef,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(graph) > 0 {
		if err := json.Unmarshal(graph, &v.Graph); err != nil {
			return nil, err
		}
	}
	v.EngineRef = engineRef.String
	return &v, nil
}

// scanAudio scans a single row into a model.Audio.
func scanAudio(row scannable) (*model.Audio, error) {
	var a model.Audio
	var storagePath, ttsText, ttsVoice sql.NullString
	err := row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.Name,
		&a.Type,
		&a.Filename,
		&a.MimeType,
		&a.SizeBytes,
		&storagePath,
		&a.EnginePath,
		&ttsText,
		&ttsVoice,
		&a.TTSCharsUsed,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.StoragePath = storagePath.String
	a.TTSText = ttsText.String
	a.TTSVoice = ttsVoice.String
	return &a, nil
}

// scanSurvey scans a single row into a model.CsatSurvey. Score types are
// stored as a comma-joined string.
func scanSurvey(row scannable) (*model.CsatSurvey, error) {
	var s model.CsatSurvey
	var scoreTypes string
	err := row.Scan(
		&s.ID,
		&s.OrganizationID,
		&s.Name,
		&scoreTypes,
		&s.PublicLinkSlug,
		&s.Enabled,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, st := range strings.Split(scoreTypes, ",") {
		if st != "" {
			s.ScoreTypes = append(s.ScoreTypes, model.CsatScoreType(st))
		}
	}
	return &s, nil
}

// scanQuestion scans a single row into a model.CsatQuestion.
func scanQuestion(row scannable) (*model.CsatQuestion, error) {
	var q model.CsatQuestion
	err := row.Scan(
		&q.ID,
		&q.OrganizationID,
		&q.SurveyID,
		&q.Text,
		&q.Order,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// scanResponse scans a single row into a model.CsatResponse.
func scanResponse(row scannable) (*model.CsatResponse, error) {
	var r model.CsatResponse
	var traceID, comment sql.NullString
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.SurveyID,
		&r.QuestionID,
		&traceID,
		&r.Channel,
		&r.ScoreType,
		&r.Score,
		&comment,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.TraceID = traceID.String
	r.Comment = comment.String
	return &r, nil
}

// scanQuota scans a single row into a model.Quota.
func scanQuota(row scannable) (*model.Quota, error) {
	var q model.Quota
	err := row.Scan(
		&q.OrganizationID,
		&q.Month,
		&q.Limits.TTSUnits,
		&q.Limits.FlowExec,
		&q.Usage.TTSUnitsUsed,
		&q.Usage.FlowExecUsed,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		traceID sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.OrganizationID, &traceID, &e.Topic, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.TraceID = traceID.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanExecution scans a single row into a model.Execution.
func scanExecution(row scannable) (*model.Execution, error) {
	var e model.Execution
	var (
		flowID, nodeID sql.NullString
		details        []byte
	)
	err := row.Scan(&e.ID, &e.OrganizationID, &e.TraceID, &flowID, &nodeID, &e.Status, &details, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.FlowID = flowID.String
	e.NodeID = nodeID.String
	if len(details) > 0 {
		e.Details = json.RawMessage(details)
	}
	return &e, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}

// joinCSV joins string-like slices into a comma-separated column value.
func joinCSV[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}
