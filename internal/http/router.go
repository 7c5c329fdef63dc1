package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/disaforms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/disaforms-backend/internal/http/middleware"
	"github.com/yungbote/disaforms-backend/internal/observability"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// ServiceName enables otelgin spans when non-empty.
	ServiceName string

	FormHandler    *httpH.FormHandler
	RecordHandler  *httpH.RecordHandler
	SignoffHandler *httpH.SignoffHandler
	ReportHandler  *httpH.ReportHandler
	UserHandler    *httpH.UserHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Users
	if cfg.UserHandler != nil {
		users := api.Group("/users")
		users.GET("", cfg.UserHandler.List)
		users.POST("", cfg.UserHandler.Create)
		users.GET("/by-role/:role", cfg.UserHandler.ListByRole)
		users.PUT("/:id", cfg.UserHandler.Update)
		users.DELETE("/:id", cfg.UserHandler.Delete)
	}

	if cfg.FormHandler != nil {
		api.GET("/forms", cfg.FormHandler.ListForms)
	}

	form := api.Group("/forms/:formType")
	{
		// Catalogue, registry, checkpoint master
		if cfg.FormHandler != nil {
			form.GET("", cfg.FormHandler.GetForm)
			form.GET("/custom-columns", cfg.FormHandler.ListColumns)
			form.POST("/custom-columns", cfg.FormHandler.AddColumn)
			form.PUT("/custom-columns/:id", cfg.FormHandler.RenameColumn)
			form.DELETE("/custom-columns/:id", cfg.FormHandler.RemoveColumn)
			form.GET("/checkpoints", cfg.FormHandler.ListCheckpoints)
			form.PUT("/checkpoints", cfg.FormHandler.ReplaceCheckpoints)
		}

		// Records
		if cfg.RecordHandler != nil {
			form.GET("/details", cfg.RecordHandler.Details)
			form.POST("/save", cfg.RecordHandler.Save)
			form.GET("/records", cfg.RecordHandler.List)
			form.DELETE("/records/:id", cfg.RecordHandler.Delete)
			form.GET("/last-value/:field", cfg.RecordHandler.LastValue)
		}

		// Sign-off + NCR
		if cfg.SignoffHandler != nil {
			form.GET("/pending/:role/:person", cfg.SignoffHandler.Pending)
			form.POST("/sign", cfg.SignoffHandler.Sign)
			form.POST("/ncr", cfg.SignoffHandler.CreateNCR)
			form.GET("/ncr/pending/:person", cfg.SignoffHandler.PendingNCRs)
			form.POST("/ncr/:id/sign", cfg.SignoffHandler.CompleteNCR)
		}

		// Reports
		if cfg.ReportHandler != nil {
			form.GET("/bulk-data", cfg.ReportHandler.Bulk)
			form.GET("/report", cfg.ReportHandler.Report)
		}
	}

	return r
}
