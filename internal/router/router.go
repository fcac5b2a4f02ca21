package router

import (
	"time"

	"saborpos/internal/config"
	"saborpos/internal/handler"
	"saborpos/internal/middleware"
	"saborpos/internal/repository"
	"saborpos/internal/service"
	"saborpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	cashRepo := repository.NewCashRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	estRepo := repository.NewEstablishmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	cashSvc := service.NewCashService(cashRepo, ledgerRepo, estRepo, auditRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	cashH := handler.NewCashHandler(cashSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: attendant, manager, admin — declared per-endpoint. The close
		// endpoint is deliberately open to all three: the service decides
		// whether the close lands in pending_review or closed based on who
		// the caller is.
		cash := v1.Group("/cash")
		{
			cash.POST("/open", middleware.RequireRole("attendant", "manager", "admin"), cashH.Open)
			cash.POST("/close", middleware.RequireRole("attendant", "manager", "admin"), cashH.Close)
			cash.POST("/:id/validate", middleware.RequireRole("manager", "admin"), cashH.Validate)
			cash.POST("/movement", middleware.RequireRole("attendant", "manager", "admin"), cashH.RecordMovement)
			cash.GET("/active", middleware.RequireRole("attendant", "manager", "admin"), cashH.ActiveSession)
			cash.GET("/:id/report", middleware.RequireRole("attendant", "manager", "admin"), cashH.Report)
			cash.GET("/:id/movements", middleware.RequireRole("attendant", "manager", "admin"), cashH.ListMovements)
			cash.GET("/history", middleware.RequireRole("manager", "admin"), cashH.History)
			cash.GET("/:id/audit", middleware.RequireRole("manager", "admin"), cashH.AuditTrail)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
