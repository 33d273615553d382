package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var orgRowColumns = []string{
	"id", "name", "slug", "domain", "webhook_base", "admin_email",
	"blocked", "block_reason", "created_at", "updated_at",
}

var flowRowColumns = []string{
	"id", "organization_id", "name", "status", "version", "graph",
	"created_at", "updated_at", "published_at",
}

func TestScanHelpers(t *testing.T) {
	// nullTimePtr
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}

	// jsonbBytes
	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	input := json.RawMessage(`{"key":"value"}`)
	if string(jsonbBytes(input)) != `{"key":"value"}` {
		t.Errorf("jsonbBytes = %s", jsonbBytes(input))
	}

	// joinCSV
	if got := joinCSV([]model.CsatScoreType{model.ScoreNPS, model.ScoreStars}); got != "nps,stars" {
		t.Errorf("joinCSV = %q", got)
	}
}

func TestQueryCreateOrganization(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	org := &model.Organization{
		ID: "org-1", Name: "Acme", Slug: "acme", Domain: "acme.example.com",
		AdminEmail: "ops@acme.example.com", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO organizations").
		WithArgs(
			"org-1", "Acme", "acme", "acme.example.com", sqlmock.AnyArg(),
			"ops@acme.example.com", false, sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateOrganization(context.Background(), db, org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetOrganization(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(orgRowColumns).AddRow(
		"org-1", "Acme", "acme", "acme.example.com", nil, "ops@acme.example.com",
		true, "payment overdue", now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM organizations WHERE id = \\$1").
		WithArgs("org-1").WillReturnRows(rows)

	org, err := queryGetOrganization(context.Background(), db, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !org.Blocked || org.BlockReason != "payment overdue" {
		t.Errorf("blocked = %v, reason = %q", org.Blocked, org.BlockReason)
	}
}

func TestQueryDeleteTrunkNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM trunks").
		WithArgs("trk-missing", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := queryDeleteTrunk(context.Background(), db, "org-1", "trk-missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryGetFlowDecodesGraph(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	graph := `{"nodes":[{"id":"n1","type":"start"},{"id":"n2","type":"end"}],"edges":[{"id":"e1","source":"n1","target":"n2"}]}`

	rows := sqlmock.NewRows(flowRowColumns).AddRow(
		"flw-1", "org-1", "Main IVR", "published", 3, []byte(graph), now, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM flows WHERE id = \\$1 AND organization_id = \\$2").
		WithArgs("flw-1", "org-1").WillReturnRows(rows)

	f, err := queryGetFlow(context.Background(), db, "org-1", "flw-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Graph.Nodes) != 2 || len(f.Graph.Edges) != 1 {
		t.Errorf("graph = %d nodes, %d edges", len(f.Graph.Nodes), len(f.Graph.Edges))
	}
	if f.PublishedAt == nil {
		t.Error("publishedAt should be set")
	}
}

func TestQueryListFlowsWithTotal(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	cols := append([]string{"total_count"}, flowRowColumns...)
	rows := sqlmock.NewRows(cols).
		AddRow(7, "flw-1", "org-1", "A", "draft", 1, []byte(`{}`), now, now, nil).
		AddRow(7, "flw-2", "org-1", "B", "draft", 1, []byte(`{}`), now, now, nil)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\).+ FROM flows").
		WithArgs("org-1", "draft", 2).
		WillReturnRows(rows)

	flows, total, err := queryListFlows(context.Background(), db, "org-1",
		model.FlowFilter{Status: model.FlowDraft, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(flows) != 2 {
		t.Errorf("flows = %d, want 2", len(flows))
	}
}

func TestQueryGetQuotaDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM quotas").
		WithArgs("org-1", "2026-08").
		WillReturnError(sql.ErrNoRows)

	q, err := queryGetQuota(context.Background(), db, "org-1", "2026-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limits.TTSUnits != model.DefaultTTSUnits || q.Limits.FlowExec != model.DefaultFlowExec {
		t.Errorf("limits = %+v, want defaults", q.Limits)
	}
	if q.Usage.TTSUnitsUsed != 0 || q.Usage.FlowExecUsed != 0 {
		t.Errorf("usage = %+v, want zero", q.Usage)
	}
}

func TestQueryAddQuotaUsage(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"organization_id", "month", "tts_units_limit", "flow_exec_limit",
		"tts_units_used", "flow_exec_used", "updated_at",
	}).AddRow("org-1", "2026-08", 3000, 100000, 450, 0, now)
	mock.ExpectQuery("INSERT INTO quotas").
		WithArgs("org-1", "2026-08", model.DefaultTTSUnits, model.DefaultFlowExec, 450, 0).
		WillReturnRows(rows)

	q, err := queryAddQuotaUsage(context.Background(), db, "org-1", "2026-08", 450, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Usage.TTSUnitsUsed != 450 {
		t.Errorf("ttsUnitsUsed = %d, want 450", q.Usage.TTSUnitsUsed)
	}
}

func TestRunInTransactionCommit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM inbounds").
		WithArgs("in-1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &PostgresStore{db: db}
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteInbound(context.Background(), "org-1", "in-1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransactionRollback(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := &PostgresStore{db: db}
	boom := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
