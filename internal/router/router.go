package router

import (
	"time"

	"tillpoint/internal/config"
	"tillpoint/internal/handler"
	"tillpoint/internal/infra"
	"tillpoint/internal/middleware"
	"tillpoint/internal/repository"
	"tillpoint/internal/service"
	"tillpoint/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, imageStoreCB *infra.CircuitBreaker) *gin.Engine {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	imageStore := infra.NewVerifiedImageStore(infra.NewImageStoreClient(cfg.ImageStoreURL), imageStoreCB)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	machineRepo := repository.NewMachineRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	businessSvc := service.NewBusinessService(businessRepo, machineRepo)
	periodSvc := service.NewPeriodService(periodRepo, businessRepo, imageStore, dispatcher, rdb)
	entrySvc := service.NewEntryService(entryRepo, periodRepo, machineRepo)
	payoutSvc := service.NewPayoutService(payoutRepo, businessRepo, periodRepo)
	reportSvc := service.NewReportService(periodRepo, entryRepo, payoutRepo, businessRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	businessesH := handler.NewBusinessHandler(businessSvc)
	periodsH := handler.NewPeriodHandler(periodSvc)
	entriesH := handler.NewEntryHandler(entrySvc)
	payoutsH := handler.NewPayoutHandler(payoutSvc)
	reportsH := handler.NewReportHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, imageStoreCB))

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
		// Roles: staff, supervisor, admin — declared per-endpoint

		periods := v1.Group("/periods")
		{
			periods.POST("/open", middleware.RequireRole("staff", "supervisor", "admin"), periodsH.Open)
			periods.POST("/:id/close", middleware.RequireRole("staff", "supervisor", "admin"), periodsH.Close)
			periods.GET("/active", middleware.RequireRole("staff", "supervisor", "admin"), periodsH.GetActive)
			periods.GET("/:id", middleware.RequireRole("staff", "supervisor", "admin"), periodsH.Get)
			periods.GET("", middleware.RequireRole("supervisor", "admin"), periodsH.List)

			periods.POST("/:id/entries", middleware.RequireRole("staff", "supervisor", "admin"), entriesH.Create)
			periods.GET("/:id/entries", middleware.RequireRole("staff", "supervisor", "admin"), entriesH.ListByPeriod)
		}

		v1.GET("/machines/:id/entries", middleware.RequireRole("supervisor", "admin"), entriesH.ListByMachine)

		payouts := v1.Group("/payouts")
		{
			payouts.POST("", middleware.RequireRole("staff", "supervisor", "admin"), payoutsH.Create)
			payouts.GET("", middleware.RequireRole("staff", "supervisor", "admin"), payoutsH.ListByBusiness)
			payouts.GET("/:id", middleware.RequireRole("staff", "supervisor", "admin"), payoutsH.Get)
			payouts.PUT("/:id", middleware.RequireRole("supervisor", "admin"), payoutsH.Update)
			payouts.DELETE("/:id", middleware.RequireRole("supervisor", "admin"), payoutsH.Void)
		}

		// Businesses — admin can write, all authenticated can read
		v1.GET("/businesses", middleware.RequireRole("staff", "supervisor", "admin"), businessesH.List)
		v1.GET("/businesses/:id", middleware.RequireRole("staff", "supervisor", "admin"), businessesH.Get)
		v1.GET("/businesses/:id/machines", middleware.RequireRole("staff", "supervisor", "admin"), businessesH.ListMachines)
		businesses := v1.Group("/businesses", middleware.RequireRole("admin"))
		{
			businesses.POST("", businessesH.Create)
			businesses.POST("/:id/machines", businessesH.AddMachine)
			businesses.DELETE("/:id/machines/:machine_id", businessesH.DeactivateMachine)
		}

		v1.GET("/reports/daily", middleware.RequireRole("supervisor", "admin"), reportsH.Daily)

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
