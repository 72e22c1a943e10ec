package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/testutil"
)

func TestCustomClaims_Validate(t *testing.T) {
	claims := CustomClaims{Email: "user@example.com", Name: "User"}
	if err := claims.Validate(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestGetUser_Present(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	outletID := uuid.New()
	user := &domain.User{
		ID:       uuid.New(),
		Subject:  "auth0|staff",
		Role:     domain.RoleOutletStaff,
		OutletID: &outletID,
	}
	SetUser(c, user)

	got := GetUser(c)
	if got == nil {
		t.Fatal("Expected user, got nil")
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, got.ID)
	}
	if got.Role != domain.RoleOutletStaff {
		t.Errorf("Expected outlet_staff role, got %s", got.Role)
	}
}

func TestGetUser_Missing(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := GetUser(c); got != nil {
		t.Errorf("Expected nil user, got %+v", got)
	}
}

func TestGetClaims_Missing(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if got := GetClaims(c); got != nil {
		t.Errorf("Expected nil claims, got %+v", got)
	}
}

func TestAuthMiddleware_MissingAuthorizationHeader(t *testing.T) {
	e := echo.New()
	m := &AuthMiddleware{userRepo: testutil.NewMockUserRepository()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/days/today", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	err := m.Authenticate()(handler)(c)
	if err == nil {
		t.Fatal("Expected error for missing authorization header")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.Code)
	}
}

func TestAuthMiddleware_InvalidAuthorizationHeaderFormat(t *testing.T) {
	e := echo.New()
	m := &AuthMiddleware{userRepo: testutil.NewMockUserRepository()}

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for _, header := range []string{"Basic abc123", "Bearer", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/days/today", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := m.Authenticate()(handler)(c)
		if err == nil {
			t.Errorf("Expected error for header %q", header)
			continue
		}
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Errorf("Expected HTTPError for header %q, got %T", header, err)
			continue
		}
		if httpErr.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401 for header %q, got %d", header, httpErr.Code)
		}
	}
}
