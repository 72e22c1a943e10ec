package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/khatapro/khata-backend/internal/service"
)

func previewSplit(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler := NewAllocationHandler(service.NewAllocationService())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment-splits/preview", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupActor(c, staffUser(uuid.New()))

	if err := handler.Preview(c); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	return rec
}

func TestPreviewSplit_EqualDistributionWithResidue(t *testing.T) {
	rec := previewSplit(t, `{
		"op": "distribute",
		"modes": ["cash", "upi", "card"],
		"total": "100.00"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PreviewSplitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Allocations) != 3 {
		t.Fatalf("Expected 3 allocations, got %d", len(response.Allocations))
	}
	if response.Allocations[0].Amount != "33.33" || response.Allocations[2].Amount != "33.34" {
		t.Errorf("Expected 33.33/33.33/33.34 split, got %s/%s/%s",
			response.Allocations[0].Amount, response.Allocations[1].Amount, response.Allocations[2].Amount)
	}
	if !response.Balanced {
		t.Error("Expected split to be balanced")
	}
	if response.Sum != "100.00" {
		t.Errorf("Expected sum '100.00', got %s", response.Sum)
	}
}

func TestPreviewSplit_ManualEditRebalances(t *testing.T) {
	rec := previewSplit(t, `{
		"op": "manual",
		"modes": ["cash", "upi"],
		"total": "100.00",
		"current": [
			{"mode": "cash", "amount": "50.00", "autoCalculated": true},
			{"mode": "upi", "amount": "50.00", "autoCalculated": true}
		],
		"editedMode": "cash",
		"editedAmount": "30.00"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PreviewSplitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Allocations[0].Amount != "30.00" {
		t.Errorf("Expected pinned cash '30.00', got %s", response.Allocations[0].Amount)
	}
	if response.Allocations[0].AutoCalculated {
		t.Error("Expected pinned cash to be manual")
	}
	if response.Allocations[1].Amount != "70.00" {
		t.Errorf("Expected upi to absorb '70.00', got %s", response.Allocations[1].Amount)
	}
}

func TestPreviewSplit_NoModes(t *testing.T) {
	rec := previewSplit(t, `{"op": "distribute", "modes": [], "total": "100.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestPreviewSplit_UnknownOp(t *testing.T) {
	rec := previewSplit(t, `{"op": "guess", "modes": ["cash"], "total": "100.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
