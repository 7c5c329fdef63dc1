package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

// CheckpointInput is one entry of a replacement checkpoint list. ID zero
// creates a new checkpoint.
type CheckpointInput struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
	Method      string `json:"method"`
}

type CheckpointAggregate interface {
	domainagg.Aggregate
	Replace(ctx context.Context, formType string, items []CheckpointInput) ([]*types.Checkpoint, error)
	Seed(ctx context.Context, schema *forms.Schema) (int, error)
}

type CheckpointAggregateDeps struct {
	Base        BaseDeps
	Checkpoints repos.CheckpointRepo
}

type checkpointAggregate struct {
	deps CheckpointAggregateDeps
}

func NewCheckpointAggregate(deps CheckpointAggregateDeps) CheckpointAggregate {
	deps.Base = deps.Base.withDefaults()
	return &checkpointAggregate{deps: deps}
}

func (a *checkpointAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "checkpoints",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Tables:           []string{"checkpoints"},
		Notes:            "replace renumbers by position and soft deletes omitted ids",
	}
}

// Replace makes items the active list in order. Active checkpoints left out
// of items are soft deleted.
func (a *checkpointAggregate) Replace(ctx context.Context, formType string, items []CheckpointInput) ([]*types.Checkpoint, error) {
	const op = "checkpoints.replace"
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, MapError(op, ValidationError(fmt.Sprintf("checkpoint %d: description is required", i+1)))
		}
	}
	var out []*types.Checkpoint
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var ids []uint
		for _, it := range items {
			if it.ID != 0 {
				ids = append(ids, it.ID)
			}
		}
		known, err := a.deps.Checkpoints.GetByIDs(dbc, ids)
		if err != nil {
			return err
		}
		owned := map[uint]bool{}
		for _, cp := range known {
			if cp.FormType == formType {
				owned[cp.ID] = true
			}
		}

		keep := make([]uint, 0, len(items))
		var fresh []*types.Checkpoint
		for i, it := range items {
			row := &types.Checkpoint{
				ID:          it.ID,
				FormType:    formType,
				SlNo:        i + 1,
				Description: strings.TrimSpace(it.Description),
				Method:      strings.TrimSpace(it.Method),
			}
			if it.ID == 0 {
				fresh = append(fresh, row)
				continue
			}
			if !owned[it.ID] {
				return NotFoundError(fmt.Sprintf("checkpoint %d not found", it.ID))
			}
			if err := a.deps.Checkpoints.Update(dbc, row); err != nil {
				return err
			}
			keep = append(keep, it.ID)
		}
		if err := a.deps.Checkpoints.Create(dbc, fresh); err != nil {
			return err
		}
		for _, cp := range fresh {
			keep = append(keep, cp.ID)
		}
		if err := a.deps.Checkpoints.MarkDeletedExcept(dbc, formType, keep); err != nil {
			return err
		}
		out, err = a.deps.Checkpoints.ListActive(dbc, formType)
		return err
	})
	return out, err
}

// Seed inserts the catalogue checkpoints of a form that has none yet.
func (a *checkpointAggregate) Seed(ctx context.Context, schema *forms.Schema) (int, error) {
	if schema == nil || len(schema.Checkpoints) == 0 {
		return 0, nil
	}
	var n int
	err := executeWrite(ctx, a.deps.Base, "checkpoints.seed", func(dbc dbctx.Context) error {
		count, err := a.deps.Checkpoints.Count(dbc, schema.Type)
		if err != nil || count > 0 {
			return err
		}
		rows := make([]*types.Checkpoint, 0, len(schema.Checkpoints))
		for i, cp := range schema.Checkpoints {
			rows = append(rows, &types.Checkpoint{
				FormType:    schema.Type,
				SlNo:        i + 1,
				Description: cp.Description,
				Method:      cp.Method,
			})
		}
		n = len(rows)
		return a.deps.Checkpoints.Create(dbc, rows)
	})
	return n, err
}
