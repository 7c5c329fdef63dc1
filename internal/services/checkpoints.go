package services

import (
	"context"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

// CheckpointService owns the master checklist of checkpoint-keyed forms.
type CheckpointService interface {
	List(ctx context.Context, formType string) ([]*types.Checkpoint, error)
	Replace(ctx context.Context, formType string, items []aggregates.CheckpointInput) ([]*types.Checkpoint, error)
	// SeedAll loads the catalogue's default checkpoints into empty forms.
	SeedAll(ctx context.Context) (int, error)
}

type checkpointService struct {
	log         *logger.Logger
	cat         *forms.Catalogue
	checkpoints repos.CheckpointRepo
	agg         aggregates.CheckpointAggregate
}

func NewCheckpointService(baseLog *logger.Logger, cat *forms.Catalogue, checkpoints repos.CheckpointRepo, agg aggregates.CheckpointAggregate) CheckpointService {
	return &checkpointService{
		log:         baseLog.With("service", "CheckpointService"),
		cat:         cat,
		checkpoints: checkpoints,
		agg:         agg,
	}
}

func (s *checkpointService) schema(op, formType string) (*forms.Schema, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	if schema.RowKey != forms.RowKeyCheckpoint {
		return nil, domainagg.Validation(op, schema.Type+" has no checkpoint master")
	}
	return schema, nil
}

func (s *checkpointService) List(ctx context.Context, formType string) ([]*types.Checkpoint, error) {
	schema, err := s.schema("checkpoints.list", formType)
	if err != nil {
		return nil, err
	}
	return s.checkpoints.ListActive(dbctx.Context{Ctx: ctx}, schema.Type)
}

func (s *checkpointService) Replace(ctx context.Context, formType string, items []aggregates.CheckpointInput) ([]*types.Checkpoint, error) {
	schema, err := s.schema("checkpoints.replace", formType)
	if err != nil {
		return nil, err
	}
	out, err := s.agg.Replace(ctx, schema.Type, items)
	if err != nil {
		return nil, err
	}
	s.log.Info("checkpoint master replaced", "form", schema.Type, "active", len(out))
	return out, nil
}

func (s *checkpointService) SeedAll(ctx context.Context) (int, error) {
	total := 0
	for _, schema := range s.cat.All() {
		if schema.RowKey != forms.RowKeyCheckpoint || len(schema.Checkpoints) == 0 {
			continue
		}
		n, err := s.agg.Seed(ctx, schema)
		if err != nil {
			return total, err
		}
		if n > 0 {
			s.log.Info("checkpoints seeded", "form", schema.Type, "count", n)
		}
		total += n
	}
	return total, nil
}
