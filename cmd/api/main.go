package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hseqaudit/cmd/internal/app"
	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/http/handler"
	authmw "hseqaudit/cmd/internal/http/middleware"
	"hseqaudit/cmd/internal/http/web"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.GetLogger()

	// Loads env vars depending on environment
	if err := config.LoadEnv(ctx); err != nil {
		logger.Fatalf("unable to load environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	config.SetLogLevel(cfg.LogLevel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Errorf("failed to close resources: %v", err)
		}
	}()

	e, err := newServer(a)
	if err != nil {
		logger.Fatalf("failed to build server: %v", err)
	}

	go a.Watcher.Start(ctx)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

func newServer(a *app.App) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Logger.SetLevel(echoLogLevel(config.GetLogger().GetLevel()))

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(authmw.NewCORSMiddleware(a.Config.CORSOrigins))
	e.Use(middleware.BodyLimit("30M"))

	authCfg := &authmw.AuthMiddlewareConfig{Tokens: a.Tokens, Sessions: a.Users}
	auth := authmw.NewAuthMiddleware(authCfg)
	optionalAuth := authmw.NewOptionalAuthMiddleware(authCfg)
	pageAuth := authmw.NewPageAuthMiddleware(authCfg, "/login")

	userRoutes := handler.NewUserDefault(a.Users, a.Config.IsProduction())
	companyRoutes := handler.NewCompanyRoute(a.Companies)
	checklistRoutes := handler.NewChecklistRoute(a.Checklist)
	auditRoutes := handler.NewAuditRoute(a.Audits)
	findingRoutes := handler.NewFindingRoute(a.Findings)
	ncRoutes := handler.NewNCRoute(a.NCs)
	analysisRoutes := handler.NewAnalysisRoute(a.Analysis)
	dashboardRoutes := handler.NewDashboardRoute(a.Dashboard)
	reportRoutes := handler.NewReportRoute(a.Reports)

	var redisPinger handler.Pinger
	if a.Redis != nil {
		redisPinger = handler.PingFunc(a.PingRedis)
	}
	healthRoutes := handler.NewHealthRoute(handler.PingFunc(a.PingDatabase), redisPinger)

	api := e.Group("/api")

	// Auth
	api.POST("/auth/login", userRoutes.Login)
	api.POST("/auth/logout", userRoutes.Logout)
	api.GET("/auth/me", userRoutes.Me, auth)

	// Audits
	api.GET("/audits", auditRoutes.GetAudits, auth)
	api.POST("/audits", auditRoutes.CreateAudit, auth)
	api.GET("/audits/:id", auditRoutes.GetAudit, auth)
	api.PATCH("/audits/:id", auditRoutes.UpdateAudit, auth)
	api.DELETE("/audits/:id", auditRoutes.DeleteAudit, auth)
	api.POST("/audits/:id/complete", auditRoutes.CompleteAudit, auth)

	// Findings
	api.GET("/findings", findingRoutes.GetFindings, auth)
	api.POST("/findings", findingRoutes.CreateFinding, auth)
	api.POST("/findings/bulk", findingRoutes.BulkCreateFindings, auth)
	api.GET("/findings/summary/:auditId", findingRoutes.GetSummary, auth)
	api.PATCH("/findings/:id", findingRoutes.UpdateFinding, auth)
	api.DELETE("/findings/:id", findingRoutes.DeleteFinding, auth)
	api.POST("/findings/:id/evidence", findingRoutes.AttachEvidence, auth)

	// Non-conformities and CAPA
	api.GET("/nonconformities", ncRoutes.GetNCs, auth)
	api.POST("/nonconformities", ncRoutes.CreateNC, auth)
	api.GET("/nonconformities/stats", ncRoutes.GetStats, auth)
	api.GET("/nonconformities/:id", ncRoutes.GetNC, auth)
	api.POST("/nonconformities/:id/capa", ncRoutes.AddCAPA, auth)
	api.PATCH("/nonconformities/:id/close", ncRoutes.CloseNC, auth)
	api.PATCH("/capa/:id", ncRoutes.UpdateCAPA, auth)

	// Analysis
	api.POST("/analysis", analysisRoutes.RunAnalysis, auth)
	api.POST("/analysis/test", analysisRoutes.TestAnalysis, auth)
	api.GET("/analysis/:auditId", analysisRoutes.GetAnalysis, auth)

	// Checklist
	api.GET("/checklist", checklistRoutes.GetItems, auth)
	api.POST("/checklist", checklistRoutes.CreateItem, auth)
	api.GET("/checklist/trinorma", checklistRoutes.GetTrinorma, auth)
	api.POST("/checklist/seed", checklistRoutes.Seed, optionalAuth)
	api.GET("/checklist/demo-config", checklistRoutes.GetDemoConfig)

	// Dashboard, companies, users, reports
	api.GET("/dashboard/stats", dashboardRoutes.GetStats, auth)
	api.GET("/companies", companyRoutes.GetCompanies, auth)
	api.POST("/companies", companyRoutes.CreateCompany, auth)
	api.GET("/users", userRoutes.GetUsers, auth)
	api.POST("/users", userRoutes.CreateUser, auth)
	api.GET("/reports/audits/:id", reportRoutes.GetAuditReport, auth)

	// Pages
	pages := &web.Pages{DashboardSvc: a.Dashboard, AuditSvc: a.Audits, NCSvc: a.NCs, SettingsSvc: a.Checklist}
	e.GET("/login", pages.Login)
	e.GET("/", pages.Dashboard, pageAuth)
	e.GET("/audits", pages.AuditList, pageAuth)
	e.GET("/audits/new", pages.NewAudit, pageAuth)
	e.GET("/nonconformities", pages.NonConformities, pageAuth)
	e.GET("/reports", pages.Reports, pageAuth)
	e.GET("/settings", pages.Settings, pageAuth)

	// Docker Compose healthcheck
	e.GET("/health", healthRoutes.Health)
	return e, nil
}

func requestLogger() echo.MiddlewareFunc {
	logger := config.GetLogger()
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latencyMs": v.Latency.Milliseconds(),
				"remoteIp":  v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}

func echoLogLevel(level logrus.Level) log.Lvl {
	switch {
	case level >= logrus.DebugLevel:
		return log.DEBUG
	case level == logrus.InfoLevel:
		return log.INFO
	case level == logrus.WarnLevel:
		return log.WARN
	default:
		return log.ERROR
	}
}
