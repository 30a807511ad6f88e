package handlers

import (
	"errors"
	"net/http"

	"task_manager/internal/domain"
	"task_manager/internal/logger"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// respondError maps the error taxonomy to a status and envelope. op names the
// operation in the generic 500 message ("Server error fetching tasks").
func (h *Handler) respondError(c *gin.Context, err error, op string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrValidation):
		respondFail(c, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, domain.ErrDuplicateEmail):
		respondFail(c, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrUnauthenticated):
		respondFail(c, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, domain.ErrNotFound):
		respondFail(c, http.StatusNotFound, "Task not found")
	default:
		logger.WithContext(c.Request.Context()).Error("request failed", "op", op, "error", err)
		body := Envelope{Success: false, Message: "Server error " + op}
		if h.Development {
			body.Error = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}
