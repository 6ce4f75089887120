package httpx

import (
	"bytes"
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

func newJobHandlersWithMock(t *testing.T) (*JobHandlers, *mocks.MockJobRepository, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockJobRepository(ctrl)
	svc := service.MustNewJobService(service.JobServiceOptions{Repo: mockRepo, MaxRetries: 2})
	return &JobHandlers{Svc: svc}, mockRepo, ctrl
}

func TestCreateJob_Success(t *testing.T) {
	h, mockRepo, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	reqBody := model.CreateJobRequest{
		Type:    model.JobTypeRechargeQuery,
		Payload: json.RawMessage(`{"method":"GET","path":"/subscriptions/42"}`),
	}
	expected := &model.Job{
		ID:      "5e3bf4d6-0c4b-41f7-9f2e-0d4a5b6c7d8e",
		Type:    model.JobTypeRechargeQuery,
		Status:  model.JobStatusPending,
		Payload: reqBody.Payload,
	}

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(expected, nil)

	b, _ := json.Marshal(reqBody)
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Job
	err := json.NewDecoder(resp.Body).Decode(&got)
	require.NoError(t, err)
	assert.Equal(t, expected.ID, got.ID)
}

func TestCreateJob_InvalidJSON(t *testing.T) {
	h, _, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString("{bad"))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJob_UnrecognizedTypeRejected(t *testing.T) {
	h, _, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	// JobType unmarshalling is strict, so a misspelled type never reaches the
	// queue at all.
	body := `{"type":"rechage_query","payload":{"method":"GET","path":"/x"}}`
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "invalid_json")
}

func TestGetJob_NotFound(t *testing.T) {
	h, mockRepo, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	const id = "0b9f9a0e-8b1d-47c8-9d27-01b30f5467a1"
	mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, data.ErrJobNotFound)

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()

	h.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetJob_MalformedIDNeverHitsStorage(t *testing.T) {
	h, _, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-uuid", nil)
	r.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()

	h.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "invalid_path")
}

func TestJobStats(t *testing.T) {
	h, mockRepo, ctrl := newJobHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().
		Stats(gomock.Any(), model.JobTypeRechargeQuery).
		Return(&model.JobStats{Pending: 3, Running: 1, Completed: 10, Failed: 2}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/stats", nil)
	w := httptest.NewRecorder()

	h.JobStats(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.JobStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.Pending)
	assert.Equal(t, 2, got.Failed)
}
