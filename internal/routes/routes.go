package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/handlers"
	"gigmarket/internal/middleware"
	"gigmarket/internal/security"
)

type RateLimitConfig struct {
	Limiter middleware.Limiter
	Limit   int
	Window  time.Duration
}

func SetupRoutes(
	r *gin.Engine,
	tokens *security.JWTProvider,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	authLimit RateLimitConfig,
) *gin.Engine {
	authRequired := middleware.AuthMiddleware(tokens)

	// ---- public
	auth := r.Group("/auth", middleware.RateLimit(authLimit.Limiter, authLimit.Limit, authLimit.Window))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	r.GET("/tasks", taskHandler.List)
	r.GET("/users/username", userHandler.GetUsername)

	// ---- protected
	users := r.Group("/users", authRequired)
	{
		users.POST("/set-role/worker", userHandler.SetWorkerRole)
		users.POST("/set-role/customer", userHandler.SetCustomerRole)
	}

	tasks := r.Group("/tasks", authRequired)
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("/user/:userId", taskHandler.ListByUser)
		tasks.GET("/bids/:userId", taskHandler.Bids)
		tasks.POST("/:taskId/apply", taskHandler.Apply)
		tasks.GET("/:taskId/applications", taskHandler.Applications)
		tasks.GET("/:taskId/details", taskHandler.Details)
		tasks.PATCH("/:taskId/assign", taskHandler.Assign)
		tasks.PATCH("/:taskId/complete", taskHandler.Complete)
		tasks.PATCH("/:taskId/approve", taskHandler.Approve)
		tasks.PATCH("/:taskId/cancel", taskHandler.Cancel)
		tasks.PATCH("/:taskId/reopen", taskHandler.Reopen)
		tasks.PATCH("/:taskId/unassign", taskHandler.Unassign)
		tasks.DELETE("/:taskId", taskHandler.Delete)
	}

	return r
}
