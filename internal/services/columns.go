package services

import (
	"context"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

// ColumnService manages the custom-column registry of every form.
type ColumnService interface {
	List(ctx context.Context, formType string) ([]*types.CustomColumn, error)
	Add(ctx context.Context, formType, label string) (*types.CustomColumn, error)
	Rename(ctx context.Context, formType string, id uint, label string) (*types.CustomColumn, error)
	Remove(ctx context.Context, formType string, id uint) error
}

type columnService struct {
	log     *logger.Logger
	cat     *forms.Catalogue
	columns repos.CustomColumnRepo
	agg     aggregates.ColumnAggregate
}

func NewColumnService(baseLog *logger.Logger, cat *forms.Catalogue, columns repos.CustomColumnRepo, agg aggregates.ColumnAggregate) ColumnService {
	return &columnService{
		log:     baseLog.With("service", "ColumnService"),
		cat:     cat,
		columns: columns,
		agg:     agg,
	}
}

func (s *columnService) List(ctx context.Context, formType string) ([]*types.CustomColumn, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	return s.columns.ListActive(dbctx.Context{Ctx: ctx}, schema.Type)
}

func (s *columnService) Add(ctx context.Context, formType, label string) (*types.CustomColumn, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	col, err := s.agg.Add(ctx, schema.Type, label)
	if err != nil {
		return nil, err
	}
	s.log.Info("custom column added", "form", schema.Type, "column_id", col.ID, "order", col.DisplayOrder)
	return col, nil
}

func (s *columnService) Rename(ctx context.Context, formType string, id uint, label string) (*types.CustomColumn, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	return s.agg.Rename(ctx, schema.Type, id, label)
}

func (s *columnService) Remove(ctx context.Context, formType string, id uint) error {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return err
	}
	if err := s.agg.Remove(ctx, schema.Type, id); err != nil {
		return err
	}
	s.log.Info("custom column removed", "form", schema.Type, "column_id", id)
	return nil
}
