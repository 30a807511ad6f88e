package http

import (
	"context"
	"net/http"

	"task_manager/internal/http/handlers"
	"task_manager/internal/http/middleware"
	"task_manager/internal/service"
	"task_manager/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth  *service.AuthService
	Tasks *service.TaskService
	Hub   *ws.Hub
	DB    handlers.Pinger
	// Redis is probed as an optional dependency when set.
	Redis handlers.Pinger

	Version       string
	AllowedOrigin string
	Development   bool
}

// NewRouter builds the engine with the full middleware chain and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(d.Development),
		middleware.Metrics(),
		middleware.CORS(d.AllowedOrigin),
	)
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Auth, d.Tasks, d.Development)
	deps := []handlers.Dependency{{Name: "database", Pinger: d.DB}}
	if d.Redis != nil {
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: d.Redis, Optional: true})
	}
	healthHandler := handlers.NewHealthHandler(d.Version, deps...)

	r.GET("/", handlers.Index(d.Version))

	// Health checks
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.Auth(d.Auth), h.Me)
		auth.POST("/logout", middleware.Auth(d.Auth), h.Logout)
	}

	tasks := api.Group("/tasks")
	tasks.Use(middleware.Auth(d.Auth))
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/stats", h.TaskStats)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}

	// Live task events for the token's owner
	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, verifyUserID(d.Auth), d.AllowedOrigin))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
}

func verifyUserID(a *service.AuthService) ws.VerifyFunc {
	return func(ctx context.Context, token string) (int64, error) {
		claims, err := a.VerifyToken(ctx, token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}
}
