package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/henryhq/entitlements/internal/account"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/beta"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/config"
	"github.com/henryhq/entitlements/internal/entitlement"
	entitlementdomain "github.com/henryhq/entitlements/internal/entitlement/domain"
	"github.com/henryhq/entitlements/internal/observability"
	obsmiddleware "github.com/henryhq/entitlements/internal/observability/logger"
	obsmetrics "github.com/henryhq/entitlements/internal/observability/metrics"
	obstracing "github.com/henryhq/entitlements/internal/observability/tracing"
	"github.com/henryhq/entitlements/internal/ratelimit"
	"github.com/henryhq/entitlements/internal/usage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	catalog.Module,
	account.Module,
	usage.Module,
	entitlement.Module,
	beta.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	catalog        *catalog.Catalog
	accountSvc     accountdomain.Service
	entitlementSvc entitlementdomain.Service
	migrator       *beta.Migrator
	recordLimiter  *ratelimit.RecordLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	Catalog        *catalog.Catalog
	AccountSvc     accountdomain.Service
	EntitlementSvc entitlementdomain.Service
	Migrator       *beta.Migrator
	RecordLimiter  *ratelimit.RecordLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		catalog:        p.Catalog,
		accountSvc:     p.AccountSvc,
		entitlementSvc: p.EntitlementSvc,
		migrator:       p.Migrator,
		recordLimiter:  p.RecordLimiter,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.RegisterAdminRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/catalog", s.GetCatalog)

	api.POST("/accounts", s.CreateAccount)
	api.GET("/accounts/:id", s.GetAccount)
	api.GET("/accounts/:id/entitlements", s.GetEntitlementSummary)
	api.GET("/accounts/:id/features/:code", s.CheckFeatureAccess)
	api.GET("/accounts/:id/usage/:resource", s.CheckUsageLimit)
	api.POST("/accounts/:id/usage/:resource", s.RecordUsage)
}

func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.POST("/beta/migrate", s.MigrateBetaAccounts)
}
