package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/handler"
	"github.com/magazzino-io/inventario-api/internal/measure"
	"github.com/magazzino-io/inventario-api/internal/middleware"
	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/internal/repository"
	"github.com/magazzino-io/inventario-api/internal/service"
	"github.com/magazzino-io/inventario-api/pkg/cache"
	"github.com/magazzino-io/inventario-api/pkg/config"
	"github.com/magazzino-io/inventario-api/pkg/database"
	"github.com/magazzino-io/inventario-api/pkg/export"
	"github.com/magazzino-io/inventario-api/pkg/logger"
	corsmiddleware "github.com/magazzino-io/inventario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/magazzino-io/inventario-api/pkg/middleware/requestid"
	"github.com/magazzino-io/inventario-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, list caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	credentials, err := config.NewCredentialStore(cfg.Credentials.Path)
	if err != nil {
		logr.Sugar().Fatalw("credential table load failed", "path", cfg.Credentials.Path, "error", err)
	}
	logr.Sugar().Infow("credential table loaded", "entries", credentials.Len())

	articleRepo := repository.NewArticleRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	calc := measure.NewCalculator(logr)
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(credentials, cfg.JWT.Secret, cfg.JWT.Expiration, logr)
	articleSvc := service.NewArticleService(articleRepo, attachmentRepo, store, cacheRepo, calc, cfg.Cache.ListTTL, logr)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, articleRepo, store, signer, cfg.Storage.MaxFileSizeBytes, logr)
	importSvc := service.NewImportService(articleSvc, cfg.Import.ProfilesPath, logr)
	exportSvc := service.NewExportService(articleRepo, export.NewCSVExporter(), export.NewXLSXExporter(), logr)
	reportSvc := service.NewReportService(articleRepo, export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	articleHandler := handler.NewArticleHandler(articleSvc, attachmentSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc, metricsSvc)
	importHandler := handler.NewImportHandler(importSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// Signed token in the query string authorizes the download on its own,
	// so the endpoint stays outside the JWT group.
	api.GET("/articles/:id/attachments/:attachmentId/download", attachmentHandler.Download)

	protected := api.Group("", middleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/reload-credentials",
		middleware.RequireRoles(models.RoleAdmin), authHandler.ReloadCredentials)

	protected.GET("/articles", articleHandler.List)
	protected.POST("/articles", articleHandler.Create)
	protected.GET("/articles/:id", articleHandler.Get)
	protected.PUT("/articles/:id", articleHandler.Update)
	protected.DELETE("/articles/:id", articleHandler.Delete)

	protected.GET("/articles/:id/attachments", attachmentHandler.List)
	protected.POST("/articles/:id/attachments", attachmentHandler.Upload)
	protected.DELETE("/articles/:id/attachments/:attachmentId", attachmentHandler.Delete)
	protected.GET("/articles/:id/attachments/:attachmentId/url", attachmentHandler.SignDownload)

	protected.GET("/imports/profiles", importHandler.Profiles)
	protected.POST("/imports", importHandler.Import)

	protected.GET("/exports/xlsx", exportHandler.XLSX)
	protected.GET("/exports/csv", exportHandler.CSV)
	protected.GET("/exports/xlsx-by-customer", exportHandler.XLSXByCustomer)

	protected.POST("/reports/picklist", reportHandler.Picklist)
	protected.POST("/reports/transport", reportHandler.Transport)
	protected.POST("/reports/labels", reportHandler.Labels)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
