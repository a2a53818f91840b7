package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/kiosk/internal/audit"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/billingperiod"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/config"
	"github.com/smallbiznis/kiosk/internal/debt"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
	"github.com/smallbiznis/kiosk/internal/observability"
	obsmiddleware "github.com/smallbiznis/kiosk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/kiosk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/kiosk/internal/observability/tracing"
	"github.com/smallbiznis/kiosk/internal/order"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	"github.com/smallbiznis/kiosk/internal/price"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	"github.com/smallbiznis/kiosk/internal/product"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	"github.com/smallbiznis/kiosk/internal/providers/pdf"
	"github.com/smallbiznis/kiosk/internal/ratelimit"
	"github.com/smallbiznis/kiosk/internal/stock"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	"github.com/smallbiznis/kiosk/internal/user"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	product.Module,
	price.Module,
	stock.Module,
	user.Module,
	order.Module,
	billingperiod.Module,
	debt.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
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

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	clock           clock.Clock
	auditSvc        auditdomain.Service
	productSvc      productdomain.Service
	priceSvc        pricedomain.Service
	stockSvc        stockdomain.Service
	userSvc         userdomain.Service
	orderSvc        orderdomain.Service
	periodSvc       billingperioddomain.Service
	debtSvc         debtdomain.Service
	pdfProvider     pdf.Provider
	identifyLimiter *ratelimit.IdentifyLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Clock           clock.Clock
	AuditSvc        auditdomain.Service
	ProductSvc      productdomain.Service
	PriceSvc        pricedomain.Service
	StockSvc        stockdomain.Service
	UserSvc         userdomain.Service
	OrderSvc        orderdomain.Service
	PeriodSvc       billingperioddomain.Service
	DebtSvc         debtdomain.Service
	PDFProvider     pdf.Provider                `optional:"true"`
	IdentifyLimiter *ratelimit.IdentifyLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		clock:           p.Clock,
		auditSvc:        p.AuditSvc,
		productSvc:      p.ProductSvc,
		priceSvc:        p.PriceSvc,
		stockSvc:        p.StockSvc,
		userSvc:         p.UserSvc,
		orderSvc:        p.OrderSvc,
		periodSvc:       p.PeriodSvc,
		debtSvc:         p.DebtSvc,
		pdfProvider:     p.PDFProvider,
		identifyLimiter: p.IdentifyLimiter,
	}
	if svc.cfg.AdminTokenHash == "" {
		svc.log.Warn("ADMIN_TOKEN_HASH is empty, admin routes will reject every request")
	}

	svc.registerKioskRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerKioskRoutes() {
	kiosk := s.engine.Group("/api/kiosk", s.KioskActor())

	kiosk.GET("/products", s.ListCatalog)
	kiosk.POST("/identify", s.IdentifyRateLimit(), s.Identify)
	kiosk.GET("/debt/:id", s.GetUserDebt)
	kiosk.POST("/order", s.CommitOrder)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")
	admin.Use(s.AdminRequired())

	// -------- Products --------
	admin.GET("/products", s.ListProducts)
	admin.POST("/products", s.CreateProduct)
	admin.GET("/products/:id", s.GetProductByID)
	admin.PATCH("/products/:id", s.UpdateProduct)

	// -------- Prices --------
	admin.GET("/products/:id/prices", s.ListPriceHistory)
	admin.POST("/products/:id/prices", s.SetPrice)

	// -------- Stock --------
	admin.POST("/stock/restock", s.Restock)
	admin.GET("/stock/levels", s.ListStockLevels)
	admin.GET("/stock/moves", s.ListStockMoves)
	admin.GET("/stock/reconcile", s.ReconcileStock)

	// -------- Users --------
	admin.GET("/users", s.ListUsers)
	admin.POST("/users", s.CreateUser)
	admin.GET("/users/:id", s.GetUserByID)
	admin.PATCH("/users/:id", s.UpdateUser)
	admin.POST("/users/:id/badge", s.LinkBadge)
	admin.GET("/users/:id/orders", s.ListUserOrders)
	admin.GET("/users/:id/statement", s.RenderStatement)

	// -------- Orders --------
	admin.GET("/orders/:id", s.GetOrderByID)

	// -------- Billing periods --------
	admin.GET("/periods", s.ListPeriods)
	admin.POST("/periods/close", s.ClosePeriod)
	admin.GET("/periods/:id", s.GetPeriodByID)

	// -------- Debts --------
	admin.GET("/debts", s.ListDebts)
	admin.GET("/debts/summary", s.SummaryByUser)
	admin.GET("/debts/summary-current", s.CurrentSummary)
	admin.POST("/debts/:period_id/:user_id/pay", s.MarkDebtPaid)
	admin.POST("/debts/:period_id/:user_id/unpay", s.MarkDebtUnpaid)

	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
