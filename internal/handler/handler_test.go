package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/middleware"
)

// setupActor injects an authenticated user into the request context, the
// way the auth middleware does after token validation.
func setupActor(c echo.Context, user *domain.User) {
	middleware.SetUser(c, user)
}

func staffUser(outletID uuid.UUID) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Subject:   "auth0|staff",
		Email:     "staff@example.com",
		Role:      domain.RoleOutletStaff,
		OutletID:  &outletID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func accountantUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Subject:   "auth0|accountant",
		Email:     "accountant@example.com",
		Role:      domain.RoleHOAccountant,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func adminUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Subject:   "auth0|admin",
		Email:     "admin@example.com",
		Role:      domain.RoleMasterAdmin,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func auditorUser(outletID uuid.UUID) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Subject:   "auth0|auditor",
		Email:     "auditor@example.com",
		Role:      domain.RoleAuditor,
		OutletID:  &outletID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
