package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/loopkitchen/storewatch/internal/data"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/mocks"
	"github.com/loopkitchen/storewatch/internal/service"
)

func newTestRouter(t *testing.T, reportDir string) (http.Handler, *mocks.MockReportRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReportRepository(ctrl)

	reports, err := service.NewReportService(service.ReportServiceOptions{Repo: repo})
	require.NoError(t, err)

	router := NewRouter(RouterServices{Reports: reports, ReportDir: reportDir})
	return router, repo
}

func pendingReport(id string) *model.Report {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	return &model.Report{
		ReportID:  id,
		Status:    model.ReportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTriggerReport_NewRun(t *testing.T) {
	router, repo := newTestRouter(t, "")

	id := uuid.NewString()
	repo.EXPECT().CreateIfNoneActive(gomock.Any()).Return(pendingReport(id), true, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id, body["report_id"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "Report generation started", body["message"])
}

func TestTriggerReport_JoinsActiveRun(t *testing.T) {
	router, repo := newTestRouter(t, "")

	id := uuid.NewString()
	repo.EXPECT().CreateIfNoneActive(gomock.Any()).Return(pendingReport(id), false, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Report generation already in progress", body["message"])
}

func TestGetReport_Running(t *testing.T) {
	router, repo := newTestRouter(t, "")

	id := uuid.NewString()
	r := pendingReport(id)
	r.Status = model.ReportStatusRunning
	repo.EXPECT().GetByID(gomock.Any(), id).Return(r, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15", rec.Header().Get("Retry-After"))
}

func TestGetReport_CompletedExposesPublicURL(t *testing.T) {
	router, repo := newTestRouter(t, "")

	id := uuid.NewString()
	r := pendingReport(id)
	r.Status = model.ReportStatusCompleted
	internal := "file:///var/reports/" + id + ".csv"
	r.ResultURL = &internal
	repo.EXPECT().GetByID(gomock.Any(), id).Return(r, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/files/reports/"+id+".csv", body["result_url"])
}

func TestGetReport_NotFound(t *testing.T) {
	router, repo := newTestRouter(t, "")

	id := uuid.NewString()
	repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, data.ErrReportNotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Report "+id+" not found", body["detail"])
}

func TestGetReport_MalformedID(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/nonsense", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Report nonsense not found", body["detail"])
}

func TestListReports(t *testing.T) {
	router, repo := newTestRouter(t, "")

	repo.EXPECT().List(gomock.Any(), 2, 0).Return([]*model.Report{
		pendingReport(uuid.NewString()),
		pendingReport(uuid.NewString()),
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports?limit=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reports []map[string]any `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Reports, 2)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestArtifactFileServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r1.csv"), []byte("store_id\n"), 0o600))

	router, _ := newTestRouter(t, dir)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/reports/r1.csv", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "store_id\n", rec.Body.String())
}
