package server

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/wattbill/internal/config"
	"github.com/smallbiznis/wattbill/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/wattbill/internal/dashboard/domain"
	"github.com/smallbiznis/wattbill/internal/device"
	"github.com/smallbiznis/wattbill/internal/invoice"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	"github.com/smallbiznis/wattbill/internal/metering"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"github.com/smallbiznis/wattbill/internal/observability"
	obsmiddleware "github.com/smallbiznis/wattbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/wattbill/internal/observability/metrics"
	"github.com/smallbiznis/wattbill/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	observability.Module,
	fx.Provide(registerGin),
	device.Module,
	metering.Module,
	pdf.Module,
	invoice.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	billing      *config.BillingConfigHolder
	invoiceSvc   invoicedomain.Service
	dashboardSvc dashboarddomain.Service
	source       meteringdomain.Source
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	DB           *gorm.DB
	Billing      *config.BillingConfigHolder
	InvoiceSvc   invoicedomain.Service
	DashboardSvc dashboarddomain.Service
	Source       meteringdomain.Source
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log,
		db:           p.DB,
		billing:      p.Billing,
		invoiceSvc:   p.InvoiceSvc,
		dashboardSvc: p.DashboardSvc,
		source:       p.Source,
	}

	svc.engine.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	svc.registerUIRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerUIRoutes() {
	r := s.engine.Group("/")

	r.GET("/", s.Dashboard)
	r.GET("/dashboard", s.Dashboard)
	r.GET("/invoices", s.InvoicesPage)
	r.GET("/download_invoice/:id", s.DownloadInvoice)

	s.engine.Static("/static", "./static")
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/generate-invoices", s.GenerateInvoices)
	api.GET("/dashboard-data", s.DashboardData)
	api.GET("/test-cloud-ocean", s.TestCloudOcean)
}
