// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateOrganization(ctx context.Context, org *model.Organization) error {
	return queryCreateOrganization(ctx, s.db, org)
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	return queryGetOrganization(ctx, s.db, id)
}

func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	return queryListOrganizations(ctx, s.db)
}

func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *model.Organization) error {
	return queryUpdateOrganization(ctx, s.db, org)
}

func (s *PostgresStore) SetOrganizationBlocked(ctx context.Context, id string, blocked bool, reason string) (*model.Organization, error) {
	return querySetOrganizationBlocked(ctx, s.db, id, blocked, reason)
}

func (s *PostgresStore) DeleteOrganization(ctx context.Context, id string) error {
	return queryDeleteOrganization(ctx, s.db, id)
}

func (s *PostgresStore) UpsertTrunk(ctx context.Context, trunk *model.Trunk) error {
	return queryUpsertTrunk(ctx, s.db, trunk)
}

func (s *PostgresStore) GetTrunk(ctx context.Context, orgID, id string) (*model.Trunk, error) {
	return queryGetTrunk(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListTrunks(ctx context.Context, orgID string) ([]*model.Trunk, error) {
	return queryListTrunks(ctx, s.db, orgID)
}

func (s *PostgresStore) DeleteTrunk(ctx context.Context, orgID, id string) error {
	return queryDeleteTrunk(ctx, s.db, orgID, id)
}

func (s *PostgresStore) UpsertInbound(ctx context.Context, inbound *model.Inbound) error {
	return queryUpsertInbound(ctx, s.db, inbound)
}

func (s *PostgresStore) GetInbound(ctx context.Context, orgID, id string) (*model.Inbound, error) {
	return queryGetInbound(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListInbounds(ctx context.Context, orgID string) ([]*model.Inbound, error) {
	return queryListInbounds(ctx, s.db, orgID)
}

func (s *PostgresStore) DeleteInbound(ctx context.Context, orgID, id string) error {
	return queryDeleteInbound(ctx, s.db, orgID, id)
}

func (s *PostgresStore) CreateFlow(ctx context.Context, flow *model.Flow) error {
	return queryCreateFlow(ctx, s.db, flow)
}

func (s *PostgresStore) GetFlow(ctx context.Context, orgID, id string) (*model.Flow, error) {
	return queryGetFlow(ctx, s.db, orgID, id)
}

func (s *PostgresStore) GetFlowForUpdate(ctx context.Context, orgID, id string) (*model.Flow, error) {
	return queryGetFlowForUpdate(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListFlows(ctx context.Context, orgID string, filter model.FlowFilter) ([]*model.Flow, int, error) {
	return queryListFlows(ctx, s.db, orgID, filter)
}

func (s *PostgresStore) UpdateFlow(ctx context.Context, flow *model.Flow) error {
	return queryUpdateFlow(ctx, s.db, flow)
}

func (s *PostgresStore) DeleteFlow(ctx context.Context, orgID, id string) error {
	return queryDeleteFlow(ctx, s.db, orgID, id)
}

func (s *PostgresStore) SaveFlowVersion(ctx context.Context, version *model.FlowVersion) error {
	return querySaveFlowVersion(ctx, s.db, version)
}

func (s *PostgresStore) GetFlowVersion(ctx context.Context, orgID, flowID string, version int) (*model.FlowVersion, error) {
	return queryGetFlowVersion(ctx, s.db, orgID, flowID, version)
}

func (s *PostgresStore) ListFlowVersions(ctx context.Context, orgID, flowID string) ([]*model.FlowVersion, error) {
	return queryListFlowVersions(ctx, s.db, orgID, flowID)
}

func (s *PostgresStore) CreateAudio(ctx context.Context, audio *model.Audio) error {
	return queryCreateAudio(ctx, s.db, audio)
}

func (s *PostgresStore) GetAudio(ctx context.Context, orgID, id string) (*model.Audio, error) {
	return queryGetAudio(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListAudio(ctx context.Context, orgID string, audioType model.AudioType) ([]*model.Audio, error) {
	return queryListAudio(ctx, s.db, orgID, audioType)
}

func (s *PostgresStore) DeleteAudio(ctx context.Context, orgID, id string) error {
	return queryDeleteAudio(ctx, s.db, orgID, id)
}

func (s *PostgresStore) UpsertSurvey(ctx context.Context, survey *model.CsatSurvey) error {
	return queryUpsertSurvey(ctx, s.db, survey)
}

func (s *PostgresStore) GetSurvey(ctx context.Context, orgID, id string) (*model.CsatSurvey, error) {
	return queryGetSurvey(ctx, s.db, orgID, id)
}

func (s *PostgresStore) GetSurveyBySlug(ctx context.Context, slug string) (*model.CsatSurvey, error) {
	return queryGetSurveyBySlug(ctx, s.db, slug)
}

func (s *PostgresStore) ListSurveys(ctx context.Context, orgID string) ([]*model.CsatSurvey, error) {
	return queryListSurveys(ctx, s.db, orgID)
}

func (s *PostgresStore) DeleteSurvey(ctx context.Context, orgID, id string) error {
	return queryDeleteSurvey(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ReplaceSurveyQuestions(ctx context.Context, surveyID string, questions []*model.CsatQuestion) error {
	return queryReplaceSurveyQuestions(ctx, s.db, surveyID, questions)
}

func (s *PostgresStore) CreateResponse(ctx context.Context, response *model.CsatResponse) error {
	return queryCreateResponse(ctx, s.db, response)
}

func (s *PostgresStore) ListResponses(ctx context.Context, orgID, surveyID string) ([]*model.CsatResponse, error) {
	return queryListResponses(ctx, s.db, orgID, surveyID)
}

func (s *PostgresStore) GetQuota(ctx context.Context, orgID, month string) (*model.Quota, error) {
	return queryGetQuota(ctx, s.db, orgID, month)
}

func (s *PostgresStore) AddQuotaUsage(ctx context.Context, orgID, month string, ttsUnits, flowExec int) (*model.Quota, error) {
	return queryAddQuotaUsage(ctx, s.db, orgID, month, ttsUnits, flowExec)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) ListEvents(ctx context.Context, orgID string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, orgID, limit)
}

func (s *PostgresStore) RecordExecution(ctx context.Context, exec *model.Execution) error {
	return queryRecordExecution(ctx, s.db, exec)
}

func (s *PostgresStore) ListExecutions(ctx context.Context, orgID, traceID string, limit int) ([]*model.Execution, error) {
	return queryListExecutions(ctx, s.db, orgID, traceID, limit)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateOrganization(ctx context.Context, org *model.Organization) error {
	return queryCreateOrganization(ctx, s.tx, org)
}

func (s *txStore) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	return queryGetOrganization(ctx, s.tx, id)
}

func (s *txStore) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	return queryListOrganizations(ctx, s.tx)
}

func (s *txStore) UpdateOrganization(ctx context.Context, org *model.Organization) error {
	return queryUpdateOrganization(ctx, s.tx, org)
}

func (s *txStore) SetOrganizationBlocked(ctx context.Context, id string, blocked bool, reason string) (*model.Organization, error) {
	return querySetOrganizationBlocked(ctx, s.tx, id, blocked, reason)
}

func (s *txStore) DeleteOrganization(ctx context.Context, id string) error {
	return queryDeleteOrganization(ctx, s.tx, id)
}

func (s *txStore) UpsertTrunk(ctx context.Context, trunk *model.Trunk) error {
	return queryUpsertTrunk(ctx, s.tx, trunk)
}

func (s *txStore) GetTrunk(ctx context.Context, orgID, id string) (*model.Trunk, error) {
	return queryGetTrunk(ctx, s.tx, orgID, id)
}

func (s *txStore) ListTrunks(ctx context.Context, orgID string) ([]*model.Trunk, error) {
	return queryListTrunks(ctx, s.tx, orgID)
}

func (s *txStore) DeleteTrunk(ctx context.Context, orgID, id string) error {
	return queryDeleteTrunk(ctx, s.tx, orgID, id)
}

func (s *txStore) UpsertInbound(ctx context.Context, inbound *model.Inbound) error {
	return queryUpsertInbound(ctx, s.tx, inbound)
}

func (s *txStore) GetInbound(ctx context.Context, orgID, id string) (*model.Inbound, error) {
	return queryGetInbound(ctx, s.tx, orgID, id)
}

func (s *txStore) ListInbounds(ctx context.Context, orgID string) ([]*model.Inbound, error) {
	return queryListInbounds(ctx, s.tx, orgID)
}

func (s *txStore) DeleteInbound(ctx context.Context, orgID, id string) error {
	return queryDeleteInbound(ctx, s.tx, orgID, id)
}

func (s *txStore) CreateFlow(ctx context.Context, flow *model.Flow) error {
	return queryCreateFlow(ctx, s.tx, flow)
}

func (s *txStore) GetFlow(ctx context.Context, orgID, id string) (*model.Flow, error) {
	return queryGetFlow(ctx, s.tx, orgID, id)
}

func (s *txStore) GetFlowForUpdate(ctx context.Context, orgID, id string) (*model.Flow, error) {
	return queryGetFlowForUpdate(ctx, s.tx, orgID, id)
}

func (s *txStore) ListFlows(ctx context.Context, orgID string, filter model.FlowFilter) ([]*model.Flow, int, error) {
	return queryListFlows(ctx, s.tx, orgID, filter)
}

func (s *txStore) UpdateFlow(ctx context.Context, flow *model.Flow) error {
	return queryUpdateFlow(ctx, s.tx, flow)
}

func (s *txStore) DeleteFlow(ctx context.Context, orgID, id string) error {
	return queryDeleteFlow(ctx, s.tx, orgID, id)
}

func (s *txStore) SaveFlowVersion(ctx context.Context, version *model.FlowVersion) error {
	return querySaveFlowVersion(ctx, s.tx, version)
}

func (s *txStore) GetFlowVersion(ctx context.Context, orgID, flowID string, version int) (*model.FlowVersion, error) {
	return queryGetFlowVersion(ctx, s.tx, orgID, flowID, version)
}

func (s *txStore) ListFlowVersions(ctx context.Context, orgID, flowID string) ([]*model.FlowVersion, error) {
	return queryListFlowVersions(ctx, s.tx, orgID, flowID)
}

func (s *txStore) CreateAudio(ctx context.Context, audio *model.Audio) error {
	return queryCreateAudio(ctx, s.tx, audio)
}

func (s *txStore) GetAudio(ctx context.Context, orgID, id string) (*model.Audio, error) {
	return queryGetAudio(ctx, s.tx, orgID, id)
}

func (s *txStore) ListAudio(ctx context.Context, orgID string, audioType model.AudioType) ([]*model.Audio, error) {
	return queryListAudio(ctx, s.tx, orgID, audioType)
}

func (s *txStore) DeleteAudio(ctx context.Context, orgID, id string) error {
	return queryDeleteAudio(ctx, s.tx, orgID, id)
}

func (s *txStore) UpsertSurvey(ctx context.Context, survey *model.CsatSurvey) error {
	return queryUpsertSurvey(ctx, s.tx, survey)
}

func (s *txStore) GetSurvey(ctx context.Context, orgID, id string) (*model.CsatSurvey, error) {
	return queryGetSurvey(ctx, s.tx, orgID, id)
}

func (s *txStore) GetSurveyBySlug(ctx context.Context, slug string) (*model.CsatSurvey, error) {
	return queryGetSurveyBySlug(ctx, s.tx, slug)
}

func (s *txStore) ListSurveys(ctx context.Context, orgID string) ([]*model.CsatSurvey, error) {
	return queryListSurveys(ctx, s.tx, orgID)
}

func (s *txStore) DeleteSurvey(ctx context.Context, orgID, id string) error {
	return queryDeleteSurvey(ctx, s.tx, orgID, id)
}

func (s *txStore) ReplaceSurveyQuestions(ctx context.Context, surveyID string, questions []*model.CsatQuestion) error {
	return queryReplaceSurveyQuestions(ctx, s.tx, surveyID, questions)
}

func (s *txStore) CreateResponse(ctx context.Context, response *model.CsatResponse) error {
	return queryCreateResponse(ctx, s.tx, response)
}

func (s *txStore) ListResponses(ctx context.Context, orgID, surveyID string) ([]*model.CsatResponse, error) {
	return queryListResponses(ctx, s.tx, orgID, surveyID)
}

func (s *txStore) GetQuota(ctx context.Context, orgID, month string) (*model.Quota, error) {
	return queryGetQuota(ctx, s.tx, orgID, month)
}

func (s *txStore) AddQuotaUsage(ctx context.Context, orgID, month string, ttsUnits, flowExec int) (*model.Quota, error) {
	return queryAddQuotaUsage(ctx, s.tx, orgID, month, ttsUnits, flowExec)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) ListEvents(ctx context.Context, orgID string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, orgID, limit)
}

func (s *txStore) RecordExecution(ctx context.Context, exec *model.Execution) error {
	return queryRecordExecution(ctx, s.tx, exec)
}

func (s *txStore) ListExecutions(ctx context.Context, orgID, traceID string, limit int) ([]*model.Execution, error) {
	return queryListExecutions(ctx, s.tx, orgID, traceID, limit)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
