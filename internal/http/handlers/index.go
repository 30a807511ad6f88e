package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type indexData struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Index lists the API surface.
func Index(version string) gin.HandlerFunc {
	body := indexData{
		Name:    "Task Manager API",
		Version: version,
		Endpoints: map[string]string{
			"auth":   "/api/auth",
			"tasks":  "/api/tasks",
			"events": "/ws",
			"health": "/health",
		},
	}
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, "Task Manager API is running", body)
	}
}
