package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler exposes on-demand triggers for the background jobs, for
// month-end closes that cannot wait for the cron schedule.
type Handler struct {
	client *Client
	logger *slog.Logger
}

func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// MountRoutes attaches job trigger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/depreciation-run", h.triggerDepreciationRun)
	r.Post("/ledger-integrity", h.triggerLedgerIntegrity)
}

type enqueueResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) triggerDepreciationRun(w http.ResponseWriter, r *http.Request) {
	var payload DepreciationRunPayload
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
	}
	info, err := h.client.EnqueueDepreciationRun(r.Context(), payload)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "enqueue depreciation run", "error", err)
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue depreciation run")
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: info.ID, Queue: info.Queue})
}

func (h *Handler) triggerLedgerIntegrity(w http.ResponseWriter, r *http.Request) {
	info, err := h.client.EnqueueLedgerIntegrity(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "enqueue integrity scan", "error", err)
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue integrity scan")
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: info.ID, Queue: info.Queue})
}
