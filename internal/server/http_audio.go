package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/tts"
)

// maxUploadBytes caps audio uploads at 10 MB.
const maxUploadBytes = 10 << 20

// handleListAudio handles GET /v1/orgs/{orgId}/audio.
func (s *AdminServer) handleListAudio(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	audioType := model.AudioType(r.URL.Query().Get("type"))
	if audioType != "" && !audioType.IsValid() {
		respondError(w, inputError(fmt.Sprintf("invalid audio type %q", audioType)))
		return
	}

	audios, err := s.store.ListAudio(r.Context(), orgID, audioType)
	if err != nil {
		respondError(w, err)
		return
	}
	if audios == nil {
		audios = []*model.Audio{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"audio": audios})
}

// handleGetAudio handles GET /v1/orgs/{orgId}/audio/{id}.
func (s *AdminServer) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	audio, err := s.store.GetAudio(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("audio not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audio)
}

// handleUploadAudio handles POST /v1/orgs/{orgId}/audio (multipart form,
// fields "file" and "name"). Only wav and mp3 are accepted, 10 MB max. The
// file lands in the engine's tenant audio directory; the object store copy
// is best-effort.
func (s *AdminServer) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, inputError("file exceeds the 10MB limit or the form is malformed"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, inputError("file field is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".wav" && ext != ".mp3" {
		respondError(w, inputError("only wav and mp3 files are accepted"))
		return
	}

	name := r.FormValue("name")
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(header.Filename, ext)
	}

	body, err := io.ReadAll(file)
	if err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixAudio)
	if err != nil {
		respondError(w, err)
		return
	}
	audio := &model.Audio{
		ID:             id,
		OrganizationID: orgID,
		Name:           name,
		Type:           model.AudioUploaded,
		Filename:       id + ext,
		MimeType:       mimeForExt(ext),
		SizeBytes:      int64(len(body)),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.saveAudio(r.Context(), audio, body); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicAudioUploaded, orgID, "", events.AudioUploaded{Audio: audio})
	writeJSON(w, http.StatusCreated, audio)
}

type ttsInput struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// handleSynthesizeAudio handles POST /v1/orgs/{orgId}/audio/tts. The quota
// check runs before synthesis; usage is recorded after the row is saved.
func (s *AdminServer) handleSynthesizeAudio(w http.ResponseWriter, r *http.Request) {
	var in ttsInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	if strings.TrimSpace(in.Text) == "" {
		respondError(w, inputError("text is required"))
		return
	}
	chars := utf8.RuneCountInString(in.Text)
	if chars > tts.MaxTextLen {
		respondError(w, inputError(fmt.Sprintf("text must be %d characters or fewer, got %d", tts.MaxTextLen, chars)))
		return
	}

	month := model.CurrentMonth(time.Now())
	quota, err := s.store.GetQuota(r.Context(), orgID, month)
	if err != nil {
		respondError(w, err)
		return
	}
	if remaining := quota.Remaining().TTSUnits; chars > remaining {
		s.recordAndPublish(r.Context(), events.TopicQuotaExceeded, orgID, "", events.QuotaExceeded{
			OrgID:    orgID,
			Resource: "tts_units",
			Limit:    int64(quota.Limits.TTSUnits),
			Used:     int64(quota.Usage.TTSUnitsUsed),
		})
		respondError(w, conflictError(fmt.Sprintf("tts quota exceeded: %d characters requested, %d remaining this month", chars, remaining)))
		return
	}

	result, err := s.synth.Synthesize(r.Context(), in.Text, in.Voice)
	if err != nil {
		respondError(w, err)
		return
	}

	name := in.Name
	if strings.TrimSpace(name) == "" {
		name = truncate(in.Text, 40)
	}
	id, err := idgen.Generate(idgen.PrefixAudio)
	if err != nil {
		respondError(w, err)
		return
	}
	audio := &model.Audio{
		ID:             id,
		OrganizationID: orgID,
		Name:           name,
		Type:           model.AudioTTS,
		Filename:       id + ".wav",
		MimeType:       "audio/wav",
		SizeBytes:      int64(len(result.WAV)),
		TTSText:        in.Text,
		TTSVoice:       in.Voice,
		TTSCharsUsed:   result.CharsUsed,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.saveAudio(r.Context(), audio, result.WAV); err != nil {
		respondError(w, err)
		return
	}
	if _, err := s.store.AddQuotaUsage(r.Context(), orgID, month, result.CharsUsed, 0); err != nil {
		slog.Warn("failed to record tts quota usage", "org_id", orgID, "chars", result.CharsUsed, "error", err)
	}

	s.recordAndPublish(r.Context(), events.TopicAudioSynthesized, orgID, "",
		events.AudioSynthesized{Audio: audio, CharsUsed: result.CharsUsed})
	writeJSON(w, http.StatusCreated, audio)
}

// saveAudio writes the engine file, mirrors to the object store, and
// persists the row. A failed insert removes the engine file again so the
// directory doesn't accumulate orphans.
func (s *AdminServer) saveAudio(ctx context.Context, audio *model.Audio, body []byte) error {
	dir := filepath.Join(s.audioDir, audio.OrganizationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	path := filepath.Join(dir, audio.Filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	audio.EnginePath = path

	if s.blobs != nil {
		key := audio.OrganizationID + "/" + audio.Filename
		if err := s.blobs.Put(ctx, key, audio.MimeType, bytes.NewReader(body), audio.SizeBytes); err != nil {
			slog.Warn("failed to mirror audio to object store", "key", key, "error", err)
		} else {
			audio.StoragePath = key
		}
	}

	if err := s.store.CreateAudio(ctx, audio); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("failed to clean up audio file after insert failure", "path", path, "error", rmErr)
		}
		return err
	}
	return nil
}

// handleDeleteAudio handles DELETE /v1/orgs/{orgId}/audio/{id}.
func (s *AdminServer) handleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	audio, err := s.store.GetAudio(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("audio not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.DeleteAudio(r.Context(), orgID, audio.ID); err != nil {
		respondError(w, err)
		return
	}
	if audio.EnginePath != "" {
		if err := os.Remove(audio.EnginePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove engine audio file", "path", audio.EnginePath, "error", err)
		}
	}
	if s.blobs != nil && audio.StoragePath != "" {
		if err := s.blobs.Delete(r.Context(), audio.StoragePath); err != nil {
			slog.Warn("failed to remove audio object", "key", audio.StoragePath, "error", err)
		}
	}

	s.recordAndPublish(r.Context(), events.TopicAudioDeleted, orgID, "",
		events.AudioDeleted{OrgID: orgID, AudioID: audio.ID})
	w.WriteHeader(http.StatusNoContent)
}

func mimeForExt(ext string) string {
	if ext == ".mp3" {
		return "audio/mpeg"
	}
	return "audio/wav"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
