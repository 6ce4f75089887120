package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/mocks"
	"github.com/seasonalbox/boxsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconciliationMocks struct {
	pending *mocks.MockPendingUpdateRepository
	faulty  *mocks.MockFaultySubscriptionRepository
}

func newReconciliationHandlers(t *testing.T) (*ReconciliationHandlers, reconciliationMocks, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := reconciliationMocks{
		pending: mocks.NewMockPendingUpdateRepository(ctrl),
		faulty:  mocks.NewMockFaultySubscriptionRepository(ctrl),
	}
	svc := service.MustNewReconciliationService(service.ReconciliationServiceOptions{
		Pending: m.pending,
		Faulty:  m.faulty,
	})
	return &ReconciliationHandlers{Svc: svc}, m, ctrl
}

func TestReconciliationReportEndpoint(t *testing.T) {
	h, m, ctrl := newReconciliationHandlers(t)
	defer ctrl.Finish()

	m.pending.EXPECT().List(gomock.Any()).Return([]*model.PendingUpdate{
		{ID: "pu-1", Action: model.ActionUpdate, SubscriptionID: 42, CustomerID: 7},
	}, nil)
	m.faulty.EXPECT().List(gomock.Any()).Return([]*model.FaultySubscription{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/reconciliation", nil)
	w := httptest.NewRecorder()

	h.Report(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ReconciliationReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Pending, 1)
	assert.Equal(t, "pu-1", got.Pending[0].ID)
	assert.Empty(t, got.Faulty)
}

func TestQuarantineEndpoint(t *testing.T) {
	h, m, ctrl := newReconciliationHandlers(t)
	defer ctrl.Finish()

	const id = "8f14ddd1-2f0a-4b2f-8f58-1f6a54c9b9f3"
	removed := &model.PendingUpdate{ID: id, Action: model.ActionCancel, SubscriptionID: 42}
	m.pending.EXPECT().DeleteByID(gomock.Any(), id).Return(removed, nil)
	m.faulty.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *model.FaultySubscription) (*model.FaultySubscription, error) {
			assert.Equal(t, "charge never confirmed", entry.Reason)
			entry.ID = "f-1"
			return entry, nil
		})

	body := `{"pending_update_id":"` + id + `","reason":"charge never confirmed"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reconciliation/quarantine", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Quarantine(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.FaultySubscription
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "f-1", got.ID)
}

func TestQuarantineEndpointUnknownID(t *testing.T) {
	h, m, ctrl := newReconciliationHandlers(t)
	defer ctrl.Finish()

	const id = "0a70a9fb-03a4-4e3d-92b2-5b1f0a2a1c44"
	m.pending.EXPECT().DeleteByID(gomock.Any(), id).Return(nil, data.ErrPendingUpdateNotFound)

	body := `{"pending_update_id":"` + id + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reconciliation/quarantine", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Quarantine(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuarantineEndpointMalformedID(t *testing.T) {
	h, _, ctrl := newReconciliationHandlers(t)
	defer ctrl.Finish()

	body := `{"pending_update_id":"pu-1"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reconciliation/quarantine", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Quarantine(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "invalid_request")
}
