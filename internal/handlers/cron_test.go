package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawtraitstudio/pawtrait-api/internal/handlers"
	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockScanner struct {
	summary *services.ScanSummary
	err     error
	calls   int
}

func (m *mockScanner) Scan(ctx context.Context) (*services.ScanSummary, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func scanRequest(authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/cron/abandoned-carts", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestAbandonedCartScan_Success(t *testing.T) {
	scanner := &mockScanner{summary: &services.ScanSummary{Found: 3, Sent: 2}}
	handler := handlers.NewCronHandler(scanner, "cron-secret")

	rec := httptest.NewRecorder()
	handler.AbandonedCartScan(rec, scanRequest("Bearer cron-secret"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var summary services.ScanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Sent)
}

func TestAbandonedCartScan_Unauthorized(t *testing.T) {
	scanner := &mockScanner{summary: &services.ScanSummary{}}
	handler := handlers.NewCronHandler(scanner, "cron-secret")

	cases := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"wrong secret", "Bearer not-the-secret"},
		{"wrong scheme", "Basic cron-secret"},
		{"bare secret", "cron-secret"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.AbandonedCartScan(rec, scanRequest(tc.authz))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Zero(t, scanner.calls)
		})
	}
}

func TestAbandonedCartScan_UnconfiguredSecretRejectsEverything(t *testing.T) {
	scanner := &mockScanner{summary: &services.ScanSummary{}}
	handler := handlers.NewCronHandler(scanner, "")

	rec := httptest.NewRecorder()
	handler.AbandonedCartScan(rec, scanRequest("Bearer "))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, scanner.calls)
}

func TestAbandonedCartScan_InProgress(t *testing.T) {
	scanner := &mockScanner{err: models.ErrScanInProgress}
	handler := handlers.NewCronHandler(scanner, "cron-secret")

	rec := httptest.NewRecorder()
	handler.AbandonedCartScan(rec, scanRequest("Bearer cron-secret"))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAbandonedCartScan_PipelineFailure(t *testing.T) {
	scanner := &mockScanner{err: errors.New("connection refused")}
	handler := handlers.NewCronHandler(scanner, "cron-secret")

	rec := httptest.NewRecorder()
	handler.AbandonedCartScan(rec, scanRequest("Bearer cron-secret"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
