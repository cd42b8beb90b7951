package metadata

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"metadata-serverless/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo   *Repository
	logger *observability.Logger
}

func NewHandler(repo *Repository, logger *observability.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create replaces whatever is stored under the path id. The body only
// carries text and checked; both timestamps are set server-side.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "metadata id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Error("metadata_create_bad_payload", map[string]any{"id": id, "error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't create metadata")
		return
	}

	now := time.Now().UnixMilli()
	rec := Record{
		ID:        id,
		Text:      input.Text,
		Checked:   input.Checked,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Put(r.Context(), rec); err != nil {
		sentry.CaptureException(err)
		h.logger.Error("metadata_create_failed", map[string]any{"id": id, "error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't create metadata")
		return
	}

	writeMessage(w, http.StatusCreated, "Metadata created")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "metadata id is required")
		return
	}

	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "metadata not found")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("metadata_get_failed", map[string]any{"id": id, "error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't get metadata")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("metadata_list_failed", map[string]any{"error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't list metadata")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "metadata id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input RecordInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	rec, err := h.repo.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "metadata not found")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("metadata_update_failed", map[string]any{"id": id, "error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't update metadata")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "metadata id is required")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "metadata not found")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("metadata_delete_failed", map[string]any{"id": id, "error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "Couldn't delete metadata")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
