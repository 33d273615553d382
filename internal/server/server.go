// Package server exposes the administration REST API. Handlers persist
// first, then drive the engine adapter; an engine failure never rolls back
// the database write and is surfaced to the caller through ApplyResult.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/flownode"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/storage"
	"github.com/mysbc/sbcadmin/internal/store"
	"github.com/mysbc/sbcadmin/internal/tts"
)

// AdminServer holds the dependencies shared by every handler.
type AdminServer struct {
	store     store.Store
	publisher events.Publisher
	engine    engine.Adapter
	blobs     storage.BlobStore
	synth     tts.Synthesizer
	registry  *flownode.Registry
	audioDir  string
}

// Options configures a new AdminServer. Store is required; nil optional
// dependencies fall back to noop implementations.
type Options struct {
	Store     store.Store
	Publisher events.Publisher
	Engine    engine.Adapter
	Blobs     storage.BlobStore
	Synth     tts.Synthesizer
	AudioDir  string
}

// New returns an AdminServer wired with the given dependencies.
func New(opts Options) *AdminServer {
	s := &AdminServer{
		store:     opts.Store,
		publisher: opts.Publisher,
		engine:    opts.Engine,
		blobs:     opts.Blobs,
		synth:     opts.Synth,
		registry:  flownode.DefaultRegistry(),
		audioDir:  opts.AudioDir,
	}
	if s.publisher == nil {
		s.publisher = &events.NoopPublisher{}
	}
	if s.engine == nil {
		s.engine = engine.Noop{}
	}
	if s.synth == nil {
		s.synth = tts.Placeholder{}
	}
	return s
}

// recordAndPublish persists an event to the store and publishes it to the
// bus. Both operations are best-effort; failures are logged but do not block
// the caller.
func (s *AdminServer) recordAndPublish(ctx context.Context, topic, orgID, traceID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "org_id", orgID, "error", err)
		return
	}
	id, err := idgen.Generate(idgen.PrefixEvent)
	if err != nil {
		slog.Warn("failed to generate event id", "topic", topic, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		ID:             id,
		OrganizationID: orgID,
		TraceID:        traceID,
		Topic:          topic,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "org_id", orgID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "org_id", orgID, "error", err)
	}
}

// requireOrg loads the organization scoping a request. When mutating is set,
// a blocked organization rejects the operation.
func (s *AdminServer) requireOrg(ctx context.Context, orgID string, mutating bool) (*model.Organization, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError("organization not found")
	}
	if err != nil {
		return nil, err
	}
	if mutating && org.Blocked {
		return nil, conflictError("organization is blocked")
	}
	return org, nil
}

// inputError indicates invalid user input. The HTTP layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// notFoundError indicates a missing resource. Mapped to 404.
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

// conflictError indicates a state conflict (duplicate name, mutation of a
// published flow, blocked organization). Mapped to 409.
type conflictError string

func (e conflictError) Error() string { return string(e) }

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError maps service errors to HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	var (
		ie inputError
		nf notFoundError
		ce conflictError
		ve *model.ValidationError
		pe *pq.Error
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &pe) && pe.Code.Name() == "unique_violation":
		writeError(w, http.StatusConflict, "a resource with that name already exists")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return inputError("invalid JSON body")
	}
	return nil
}
