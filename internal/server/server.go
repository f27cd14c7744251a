package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	checkoutdomain "github.com/Gizz1e/Gizzle/internal/checkout/domain"
	"github.com/Gizz1e/Gizzle/internal/clock"
	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/Gizz1e/Gizzle/internal/observability"
	obslogger "github.com/Gizz1e/Gizzle/internal/observability/logger"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	obstracing "github.com/Gizz1e/Gizzle/internal/observability/tracing"
	"github.com/Gizz1e/Gizzle/internal/ratelimit"
	reconciliationdomain "github.com/Gizz1e/Gizzle/internal/reconciliation/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ClientIP only honors X-Forwarded-For from these peers. None by default.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	clock           clock.Clock
	catalog         catalogdomain.Catalog
	checkoutSvc     checkoutdomain.Service
	reconciler      reconciliationdomain.Service
	checkoutLimiter *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Clock           clock.Clock
	Catalog         catalogdomain.Catalog
	CheckoutSvc     checkoutdomain.Service
	Reconciler      reconciliationdomain.Service
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		clock:           p.Clock,
		catalog:         p.Catalog,
		checkoutSvc:     p.CheckoutSvc,
		reconciler:      p.Reconciler,
		checkoutLimiter: p.CheckoutLimiter,
	}
	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/", s.Welcome)
	api.GET("/health", s.Health)

	api.GET("/subscriptions/plans", s.ListPlans)
	api.POST("/subscriptions/checkout", s.CheckoutRateLimit(), s.CreateSubscriptionCheckout)

	api.GET("/purchases/items", s.ListItems)
	api.POST("/purchases/checkout", s.CheckoutRateLimit(), s.CreatePurchaseCheckout)

	api.GET("/payments/status/:session_id", s.GetPaymentStatus)
	api.POST("/webhook/stripe", s.HandleStripeWebhook)
}

func (s *Server) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Gizzle TV L.L.C. API"})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": s.clock.Now().UTC(),
	})
}

// RunHTTP serves the engine for the lifetime of the application.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
