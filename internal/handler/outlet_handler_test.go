package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/service"
	"github.com/khatapro/khata-backend/internal/testutil"
)

func newOutletFixture() (*OutletHandler, *testutil.MockOutletRepository) {
	outletRepo := testutil.NewMockOutletRepository()
	return NewOutletHandler(service.NewOutletService(outletRepo)), outletRepo
}

func TestListOutlets_HeadOfficeSeesAll(t *testing.T) {
	e := echo.New()
	handler, outletRepo := newOutletFixture()

	outletRepo.AddOutlet(&domain.Outlet{ID: uuid.New(), Name: "Koramangala"})
	outletRepo.AddOutlet(&domain.Outlet{ID: uuid.New(), Name: "Indiranagar"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outlets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupActor(c, accountantUser())

	if err := handler.List(c); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response []OutletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("Expected 2 outlets, got %d", len(response))
	}
	if response[0].Name != "Indiranagar" {
		t.Errorf("Expected outlets sorted by name, got %s first", response[0].Name)
	}
}

func TestListOutlets_OutletUserSeesOwn(t *testing.T) {
	e := echo.New()
	handler, outletRepo := newOutletFixture()

	own := &domain.Outlet{ID: uuid.New(), Name: "Koramangala"}
	outletRepo.AddOutlet(own)
	outletRepo.AddOutlet(&domain.Outlet{ID: uuid.New(), Name: "Indiranagar"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outlets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupActor(c, staffUser(own.ID))

	if err := handler.List(c); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response []OutletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 outlet, got %d", len(response))
	}
	if response[0].ID != own.ID.String() {
		t.Errorf("Expected outlet %s, got %s", own.ID, response[0].ID)
	}
}

func TestGetOutlet_Success(t *testing.T) {
	e := echo.New()
	handler, outletRepo := newOutletFixture()

	address := "80 Feet Road"
	outlet := &domain.Outlet{ID: uuid.New(), Name: "Koramangala", Address: &address}
	outletRepo.AddOutlet(outlet)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(outlet.ID.String())
	setupActor(c, staffUser(outlet.ID))

	if err := handler.Get(c); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response OutletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Koramangala" {
		t.Errorf("Expected name 'Koramangala', got %s", response.Name)
	}
	if response.Address == nil || *response.Address != address {
		t.Errorf("Expected address %q, got %v", address, response.Address)
	}
}

func TestGetOutlet_WrongOutletForbidden(t *testing.T) {
	e := echo.New()
	handler, outletRepo := newOutletFixture()

	outlet := &domain.Outlet{ID: uuid.New(), Name: "Koramangala"}
	outletRepo.AddOutlet(outlet)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(outlet.ID.String())
	setupActor(c, staffUser(uuid.New()))

	if err := handler.Get(c); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

func TestGetOutlet_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newOutletFixture()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	setupActor(c, accountantUser())

	if err := handler.Get(c); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
