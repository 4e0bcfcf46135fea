package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gigmarket/docs"
	"gigmarket/internal/config"
	"gigmarket/internal/handlers"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repositories"
	"gigmarket/internal/routes"
	"gigmarket/internal/security"
	"gigmarket/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	appRepo := repositories.NewApplicationRepository(db)

	// === Services ===
	tokens := security.NewJWTProvider(cfg.JWT.Secret, cfg.JWTTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)
	authService := services.NewAuthService(userRepo, tokens, emailService)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, appRepo, userRepo)
	appService := services.NewApplicationService(appRepo, taskRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService, appService)

	// === Rate limiter (redis when configured, else per-instance) ===
	var limiter middleware.Limiter = middleware.NewRateLimiter()
	if cfg.Redis.Addr != "" {
		limiter = middleware.NewRedisLimiter(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
	}

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		tokens,
		authHandler,
		userHandler,
		taskHandler,
		routes.RateLimitConfig{
			Limiter: limiter,
			Limit:   cfg.RateLimit.Requests,
			Window:  cfg.RateLimitWindow(),
		},
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
