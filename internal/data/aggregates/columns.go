package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

// ColumnAggregate owns writes to the custom column registry.
type ColumnAggregate interface {
	domainagg.Aggregate
	Add(ctx context.Context, formType, label string) (*types.CustomColumn, error)
	Rename(ctx context.Context, formType string, id uint, label string) (*types.CustomColumn, error)
	Remove(ctx context.Context, formType string, id uint) error
}

type ColumnAggregateDeps struct {
	Base    BaseDeps
	Columns repos.CustomColumnRepo
}

type columnAggregate struct {
	deps ColumnAggregateDeps
}

func NewColumnAggregate(deps ColumnAggregateDeps) ColumnAggregate {
	deps.Base = deps.Base.withDefaults()
	return &columnAggregate{deps: deps}
}

func (a *columnAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "columns",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Tables:           []string{"custom_columns"},
		Notes:            "soft delete keeps stored values",
	}
}

// Add appends a column after every existing one, deleted columns included,
// so display orders are never reused.
func (a *columnAggregate) Add(ctx context.Context, formType, label string) (*types.CustomColumn, error) {
	const op = "columns.add"
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, MapError(op, ValidationError("column label is required"))
	}
	var out *types.CustomColumn
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		max, err := a.deps.Columns.MaxDisplayOrder(dbc, formType)
		if err != nil {
			return err
		}
		col := &types.CustomColumn{FormType: formType, Label: label, DisplayOrder: max + 1}
		if err := a.deps.Columns.Create(dbc, col); err != nil {
			return err
		}
		out = col
		return nil
	})
	return out, err
}

func (a *columnAggregate) Rename(ctx context.Context, formType string, id uint, label string) (*types.CustomColumn, error) {
	const op = "columns.rename"
	label = strings.TrimSpace(label)
	var out *types.CustomColumn
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		col, err := a.find(dbc, formType, id)
		if err != nil {
			return err
		}
		if label == "" {
			return ValidationError("column label is required")
		}
		if err := a.deps.Columns.UpdateLabel(dbc, id, label); err != nil {
			return err
		}
		col.Label = label
		out = col
		return nil
	})
	return out, err
}

// Remove hides the column. Removing a hidden column again succeeds.
func (a *columnAggregate) Remove(ctx context.Context, formType string, id uint) error {
	return executeWrite(ctx, a.deps.Base, "columns.remove", func(dbc dbctx.Context) error {
		col, err := a.find(dbc, formType, id)
		if err != nil {
			return err
		}
		if col.IsDeleted {
			return nil
		}
		return a.deps.Columns.MarkDeleted(dbc, id)
	})
}

func (a *columnAggregate) find(dbc dbctx.Context, formType string, id uint) (*types.CustomColumn, error) {
	col, err := a.deps.Columns.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if col == nil || col.FormType != formType {
		return nil, NotFoundError(fmt.Sprintf("custom column %d not found", id))
	}
	return col, nil
}
