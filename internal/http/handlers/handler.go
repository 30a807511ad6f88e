package handlers

import (
	"task_manager/internal/http/middleware"
	"task_manager/internal/service"
)

type Handler struct {
	Auth  *service.AuthService
	Tasks *service.TaskService

	// Development adds internal error text to 500 responses.
	Development bool
}

func NewHandler(auth *service.AuthService, tasks *service.TaskService, development bool) *Handler {
	return &Handler{
		Auth:        auth,
		Tasks:       tasks,
		Development: development,
	}
}

// getUserID reads the authenticated user id set by middleware.Auth.
func getUserID(c interface{ Get(any) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func getClaims(c interface{ Get(any) (any, bool) }) *service.Claims {
	v, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
