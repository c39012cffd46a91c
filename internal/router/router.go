package router

import (
	"net/http"

	"fintrack/internal/config"
	"fintrack/internal/handler"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware"
	"fintrack/internal/report"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires services, middleware and the /api routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, logger *log.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if logger == nil {
		logger = log.Discard()
	}

	r := gin.New()
	// ClientIP falls back to the socket address unless the peer is a configured proxy
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", log.FieldError, err.Error())
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ledgerSvc := ledger.NewService(db, logger)
	reportSvc := report.NewService(db, logger, report.Options{
		HistoryLimit:     cfg.App.HistoryLimit,
		HistoricalMonths: cfg.App.HistoricalMonths,
	})

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(db, cfg.JWT, cfg.Security, logger)
	auth := api.Group("/auth")
	auth.Use(middleware.NewLimiter(cfg.Security.AuthRatePerMinute).Middleware())
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer, db))

	protected.GET("/me", handler.GetMe)
	protected.PUT("/users/profile", handler.UpdateProfile(db, cfg.Security.AllowedEmailDomain))
	protected.PUT("/users/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	txHandler := handler.NewTransactionHandler(ledgerSvc, reportSvc, cfg.App.PageSize)
	protected.POST("/transactions", txHandler.Create)
	protected.GET("/transactions", txHandler.List)

	targetHandler := handler.NewTargetHandler(ledgerSvc)
	protected.GET("/targets", targetHandler.List)
	protected.POST("/targets", targetHandler.Create)
	protected.POST("/targets/contribute", targetHandler.Contribute)

	reportHandler := handler.NewReportHandler(reportSvc)
	protected.GET("/reports/summary", reportHandler.Summary)
	protected.GET("/reports/history", reportHandler.History)
	protected.GET("/reports/historical", reportHandler.Historical)
	protected.GET("/reports/analysis", reportHandler.Analysis)

	protected.GET("/utilities/categories", handler.ListCategories(db))
	protected.GET("/utilities/methods", handler.ListMethods(db))

	exportHandler := handler.NewExportHandler(reportSvc)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
