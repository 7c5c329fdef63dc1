package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	"github.com/yungbote/disaforms-backend/internal/forms"
	httpH "github.com/yungbote/disaforms-backend/internal/http/handlers"
	"github.com/yungbote/disaforms-backend/internal/observability"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type Services struct {
	Columns     services.ColumnService
	Checkpoints services.CheckpointService
	Records     services.RecordService
	Signoff     services.SignoffService
	NCRs        services.NCRService
	Reports     services.ReportService
	Users       services.UserService

	handlers handlerSet
}

type handlerSet struct {
	Form    *httpH.FormHandler
	Record  *httpH.RecordHandler
	Signoff *httpH.SignoffHandler
	Report  *httpH.ReportHandler
	User    *httpH.UserHandler
	Health  *httpH.HealthHandler
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, cat *forms.Catalogue, metrics *observability.Metrics) Services {
	log.Info("Wiring repos...")
	reposet := repos.NewSet(db, log)

	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	recordAgg := aggregates.NewRecordAggregate(aggregates.RecordAggregateDeps{Base: base, Repos: reposet})
	columnAgg := aggregates.NewColumnAggregate(aggregates.ColumnAggregateDeps{Base: base, Columns: reposet.Columns})
	checkpointAgg := aggregates.NewCheckpointAggregate(aggregates.CheckpointAggregateDeps{Base: base, Checkpoints: reposet.Checkpoints})
	ncrAgg := aggregates.NewNCRAggregate(aggregates.NCRAggregateDeps{Base: base, Repos: reposet})

	log.Info("Wiring services...")
	out := Services{
		Columns:     services.NewColumnService(log, cat, reposet.Columns, columnAgg),
		Checkpoints: services.NewCheckpointService(log, cat, reposet.Checkpoints, checkpointAgg),
		Records:     services.NewRecordService(log, cat, reposet, recordAgg),
		Signoff:     services.NewSignoffService(log, cat, reposet, recordAgg),
		NCRs:        services.NewNCRService(log, cat, reposet, ncrAgg),
		Reports: services.NewReportService(log, cat, reposet, metrics, services.ReportConfig{
			Company:       cfg.ReportCompanyName,
			DecodeWorkers: cfg.ReportWorkers,
		}),
		Users: services.NewUserService(log, reposet.Users),
	}

	log.Info("Wiring handlers...")
	out.handlers = handlerSet{
		Form:    httpH.NewFormHandler(cat, out.Columns, out.Checkpoints),
		Record:  httpH.NewRecordHandler(out.Records),
		Signoff: httpH.NewSignoffHandler(out.Signoff, out.NCRs),
		Report:  httpH.NewReportHandler(out.Reports),
		User:    httpH.NewUserHandler(out.Users),
		Health:  httpH.NewHealthHandler(db),
	}
	return out
}
