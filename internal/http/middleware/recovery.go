package middleware

import (
	"fmt"
	"net/http"

	"task_manager/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 envelope. The panic value is only
// returned to the client when development is true.
func Recovery(development bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithContext(c.Request.Context()).Error("panic recovered",
			"panic", fmt.Sprint(recovered),
			"path", c.Request.URL.Path,
		)

		body := gin.H{"success": false, "message": "Something went wrong!"}
		if development {
			body["error"] = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
