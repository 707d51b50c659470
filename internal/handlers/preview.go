package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// JobReader looks up jobs and their payment state
type JobReader interface {
	GetByID(ctx context.Context, id string) (*models.Job, error)
	IsPaid(ctx context.Context, jobID string) (bool, error)
}

// Watermarker composites the preview overlay onto raw image bytes
type Watermarker func(src []byte) ([]byte, error)

// maxPreviewBytes bounds how much of an upstream asset is read into
// memory before compositing.
const maxPreviewBytes = 32 << 20

// PreviewHandler serves generated portrait previews. Unpaid jobs get the
// watermarked rendition; a paid order unlocks the clean image.
type PreviewHandler struct {
	jobs      JobReader
	watermark Watermarker
	assetBase string
	client    *http.Client
	logger    *slog.Logger
}

// NewPreviewHandler creates a new PreviewHandler
func NewPreviewHandler(jobs JobReader, watermark Watermarker, assetBase string, client *http.Client, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		jobs:      jobs,
		watermark: watermark,
		assetBase: strings.TrimSuffix(assetBase, "/"),
		client:    client,
		logger:    logger,
	}
}

// GetPreview handles GET /jobs/{jobID}/preview
func (h *PreviewHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		pkghttp.WriteBadRequest(w, "Job ID required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Job not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to load job")
		return
	}

	if job.Status != models.JobStatusCompleted || job.OutputKey == nil {
		pkghttp.WriteNotFound(w, "Preview not available")
		return
	}

	src, contentType, err := h.fetchAsset(r.Context(), *job.OutputKey)
	if err != nil {
		h.logger.Error("preview asset fetch failed",
			slog.String("job_id", jobID),
			slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusBadGateway, "upstream_error", "Preview temporarily unavailable")
		return
	}

	paid, err := h.jobs.IsPaid(r.Context(), jobID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load job")
		return
	}

	w.Header().Set("Cache-Control", "private, no-store")

	if paid {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(src)
		return
	}

	marked, err := h.watermark(src)
	if err != nil {
		h.logger.Error("watermark compositing failed",
			slog.String("job_id", jobID),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(marked)
}

// fetchAsset retrieves the rendered image from the asset store.
func (h *PreviewHandler) fetchAsset(ctx context.Context, outputKey string) ([]byte, string, error) {
	url := h.assetBase + "/" + strings.TrimPrefix(outputKey, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.New("asset store returned " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return body, contentType, nil
}
