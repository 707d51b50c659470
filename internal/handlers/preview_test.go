package handlers_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pawtraitstudio/pawtrait-api/internal/handlers"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/watermark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockJobReader struct {
	jobs map[string]*models.Job
	paid map[string]bool
}

func (m *mockJobReader) GetByID(ctx context.Context, id string) (*models.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return job, nil
}

func (m *mockJobReader) IsPaid(ctx context.Context, jobID string) (bool, error) {
	return m.paid[jobID], nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func previewRequest(jobID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID+"/preview", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", jobID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newPreviewFixture(t *testing.T, paid bool) (*handlers.PreviewHandler, []byte) {
	t.Helper()

	asset := testPNG(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(asset)
	}))
	t.Cleanup(server.Close)

	outputKey := "renders/job-1.png"
	jobs := &mockJobReader{
		jobs: map[string]*models.Job{
			"job-1": {ID: "job-1", Status: models.JobStatusCompleted, OutputKey: &outputKey},
		},
		paid: map[string]bool{"job-1": paid},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handlers.NewPreviewHandler(jobs, watermark.Apply, server.URL, server.Client(), logger), asset
}

func TestGetPreview_UnpaidJobIsWatermarked(t *testing.T) {
	handler, asset := newPreviewFixture(t, false)

	rec := httptest.NewRecorder()
	handler.GetPreview(rec, previewRequest("job-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEqual(t, asset, rec.Body.Bytes())

	img, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestGetPreview_PaidJobServedClean(t *testing.T) {
	handler, asset := newPreviewFixture(t, true)

	rec := httptest.NewRecorder()
	handler.GetPreview(rec, previewRequest("job-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, asset, rec.Body.Bytes())
}

func TestGetPreview_UnknownJob(t *testing.T) {
	handler, _ := newPreviewFixture(t, false)

	rec := httptest.NewRecorder()
	handler.GetPreview(rec, previewRequest("job-missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPreview_IncompleteJob(t *testing.T) {
	jobs := &mockJobReader{
		jobs: map[string]*models.Job{
			"job-2": {ID: "job-2", Status: models.JobStatusRunning},
		},
		paid: map[string]bool{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handlers.NewPreviewHandler(jobs, watermark.Apply, "http://assets.invalid", http.DefaultClient, logger)

	rec := httptest.NewRecorder()
	handler.GetPreview(rec, previewRequest("job-2"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPreview_AssetStoreDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	outputKey := "renders/job-1.png"
	jobs := &mockJobReader{
		jobs: map[string]*models.Job{
			"job-1": {ID: "job-1", Status: models.JobStatusCompleted, OutputKey: &outputKey},
		},
		paid: map[string]bool{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handlers.NewPreviewHandler(jobs, watermark.Apply, server.URL, server.Client(), logger)

	rec := httptest.NewRecorder()
	handler.GetPreview(rec, previewRequest("job-1"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
