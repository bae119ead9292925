package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/audit"
	auditdomain "github.com/mantodeus/mantodeus-manager/internal/audit/domain"
	"github.com/mantodeus/mantodeus-manager/internal/config"
	"github.com/mantodeus/mantodeus-manager/internal/contact"
	contactdomain "github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/internal/document"
	"github.com/mantodeus/mantodeus-manager/internal/extraction"
	"github.com/mantodeus/mantodeus-manager/internal/invoice"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/observability"
	obslogger "github.com/mantodeus/mantodeus-manager/internal/observability/logger"
	obstracing "github.com/mantodeus/mantodeus-manager/internal/observability/tracing"
	"github.com/mantodeus/mantodeus-manager/internal/project"
	projectdomain "github.com/mantodeus/mantodeus-manager/internal/project/domain"
	"github.com/mantodeus/mantodeus-manager/internal/providers"
	"github.com/mantodeus/mantodeus-manager/internal/providers/pdf"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	audit.Module,
	contact.Module,
	document.Module,
	extraction.Module,
	invoice.Module,
	project.Module,
	providers.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
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
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	invoiceSvc invoicedomain.Service
	contactSvc contactdomain.Service
	projectSvc projectdomain.Service
	auditSvc   auditdomain.Service
	importSvc  *extraction.ImportService
	documents  document.Store
	renderer   pdf.Renderer
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	InvoiceSvc invoicedomain.Service
	ContactSvc contactdomain.Service
	ProjectSvc projectdomain.Service
	AuditSvc   auditdomain.Service
	ImportSvc  *extraction.ImportService
	Documents  document.Store
	Renderer   pdf.Renderer
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		invoiceSvc: p.InvoiceSvc,
		contactSvc: p.ContactSvc,
		projectSvc: p.ProjectSvc,
		auditSvc:   p.AuditSvc,
		importSvc:  p.ImportSvc,
		documents:  p.Documents,
		renderer:   p.Renderer,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.UserRequired())

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.POST("/invoices/import", s.ImportInvoice)
	api.GET("/invoices/next-number", s.NextInvoiceNumber)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.GET("/invoices/:id/document", s.DownloadInvoiceDocument)

	api.POST("/invoices/:id/issue", s.IssueInvoice)
	api.POST("/invoices/:id/mark-paid", s.MarkInvoiceAsPaid)
	api.POST("/invoices/:id/revert", s.RevertInvoiceStatus)
	api.POST("/invoices/:id/payments", s.AddInvoicePayment)
	api.POST("/invoices/:id/cancellation", s.CreateInvoiceCancellation)

	api.POST("/invoices/:id/archive", s.ArchiveInvoice)
	api.POST("/invoices/:id/unarchive", s.UnarchiveInvoice)
	api.POST("/invoices/:id/trash", s.TrashInvoice)
	api.POST("/invoices/:id/restore", s.RestoreInvoice)

	// -------- Contacts --------
	api.GET("/contacts", s.ListContacts)
	api.POST("/contacts", s.CreateContact)
	api.GET("/contacts/:id", s.GetContactByID)
	api.PATCH("/contacts/:id", s.UpdateContact)
	api.DELETE("/contacts/:id", s.DeleteContact)

	// -------- Projects --------
	api.GET("/projects", s.ListProjects)
	api.POST("/projects", s.CreateProject)
	api.GET("/projects/:id", s.GetProjectByID)
	api.PATCH("/projects/:id", s.UpdateProject)
	api.DELETE("/projects/:id", s.DeleteProject)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
