package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"metadata-serverless/internal/metadata"
	"metadata-serverless/internal/observability"
)

// CleanupHandler prunes metadata records that have not been touched within
// the retention window. It is invoked by the platform cron and guarded by a
// shared secret; without one configured the route pretends not to exist.
type CleanupHandler struct {
	repo       *metadata.Repository
	logger     *observability.Logger
	cronSecret string
	retention  time.Duration
	batchSize  int
}

func NewCleanupHandler(
	repo *metadata.Repository,
	logger *observability.Logger,
	cronSecret string,
	retention time.Duration,
	batchSize int,
) *CleanupHandler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	return &CleanupHandler{
		repo:       repo,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		retention:  retention,
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	cutoff := time.Now().UTC().Add(-h.retention).UnixMilli()
	deleted, err := h.repo.PruneStale(r.Context(), cutoff, h.batchSize)
	if err != nil {
		h.logger.Error("metadata_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "cleanup failed"})
		return
	}

	h.logger.Info("metadata_cleanup_completed", map[string]any{"deleted_records": deleted})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"deleted_records": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
