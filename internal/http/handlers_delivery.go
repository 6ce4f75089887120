package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/dateshift"
	"github.com/seasonalbox/boxsync/internal/service"
)

// DeliveryHandlers exposes the weekday-change submission endpoint.
type DeliveryHandlers struct {
	Svc *service.DeliveryService
}

// ChangeWeekday handles POST requests submitting a delivery weekday change.
// The computed schedule comes back synchronously; the billing mutation runs
// asynchronously through the job queue.
func (h *DeliveryHandlers) ChangeWeekday(w http.ResponseWriter, r *http.Request) {
	var req service.ChangeWeekdayRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.ChangeWeekday(r.Context(), time.Now(), req)
	if err != nil {
		switch {
		case errors.Is(err, dateshift.ErrInvalidWeekday):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_weekday", Err: err})
		case errors.Is(err, data.ErrPendingUpdateExists):
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "update_in_flight", Err: err})
		default:
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "change_failed", Err: err})
		}
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
