package httpx

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/service"
)

// ReconciliationHandlers exposes the operator read surface and the manual
// quarantine trigger.
type ReconciliationHandlers struct {
	Svc *service.ReconciliationService
}

// Report handles GET requests for the pending + faulty report.
func (h *ReconciliationHandlers) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.Svc.Report(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "report_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// QuarantineRequest is the manual quarantine trigger payload.
type QuarantineRequest struct {
	PendingUpdateID string `json:"pending_update_id"`
	Reason          string `json:"reason"`
}

// Quarantine handles POST requests moving a pending update to the faulty store.
func (h *ReconciliationHandlers) Quarantine(w http.ResponseWriter, r *http.Request) {
	var req QuarantineRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if _, err := uuid.Parse(req.PendingUpdateID); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_request",
			Err:     errors.New("pending_update_id must be a valid UUID"),
		})
		return
	}
	if req.Reason == "" {
		req.Reason = "manually quarantined"
	}

	entry, err := h.Svc.Quarantine(r.Context(), req.PendingUpdateID, req.Reason)
	if err != nil {
		if errors.Is(err, data.ErrPendingUpdateNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "quarantine_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}
