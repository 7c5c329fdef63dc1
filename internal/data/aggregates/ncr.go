package aggregates

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

// NCRInput raises a non-conformance against the row of CheckpointID on a
// date and machine.
type NCRInput struct {
	Schema           *forms.Schema
	CheckpointID     uint
	Date             datatypes.Date
	Machine          string
	Details          string
	Correction       string
	RootCause        string
	CorrectiveAction string
	TargetDate       string
	Responsibility   string
	AssignedTo       string
}

type NCRAggregate interface {
	domainagg.Aggregate
	Create(ctx context.Context, in NCRInput) (*types.NonConformanceReport, error)
	Complete(ctx context.Context, schema *forms.Schema, id uint, signature string) (*types.NonConformanceReport, error)
}

type NCRAggregateDeps struct {
	Base  BaseDeps
	Repos repos.Set
	Now   func() time.Time
}

type ncrAggregate struct {
	deps NCRAggregateDeps
}

func NewNCRAggregate(deps NCRAggregateDeps) NCRAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &ncrAggregate{deps: deps}
}

func (a *ncrAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "ncr",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Tables:           []string{"non_conformance_reports", "form_records", "record_slots"},
		Notes:            "raising marks the checkpoint row not done, creating it on an unsaved day; completion is status guarded",
	}
}

// Create stores a Pending report and flips the matching row's done flag off.
func (a *ncrAggregate) Create(ctx context.Context, in NCRInput) (*types.NonConformanceReport, error) {
	const op = "ncr.create"
	switch {
	case in.Schema == nil || !in.Schema.NCR:
		return nil, MapError(op, ValidationError("form does not take non-conformance reports"))
	case in.CheckpointID == 0:
		return nil, MapError(op, ValidationError("checkpointId is required"))
	case time.Time(in.Date).IsZero() || strings.TrimSpace(in.Machine) == "":
		return nil, MapError(op, ValidationError("date and machine are required"))
	}
	var out *types.NonConformanceReport
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row := &types.NonConformanceReport{
			FormType:         in.Schema.Type,
			CheckpointID:     in.CheckpointID,
			ReportDate:       in.Date,
			Machine:          strings.TrimSpace(in.Machine),
			Details:          strings.TrimSpace(in.Details),
			Correction:       strings.TrimSpace(in.Correction),
			RootCause:        strings.TrimSpace(in.RootCause),
			CorrectiveAction: strings.TrimSpace(in.CorrectiveAction),
			TargetDate:       strings.TrimSpace(in.TargetDate),
			Responsibility:   strings.TrimSpace(in.Responsibility),
			AssignedTo:       strings.TrimSpace(in.AssignedTo),
			Status:           types.NCRStatusPending,
		}
		if err := a.deps.Repos.NCRs.Create(dbc, row); err != nil {
			return err
		}
		if _, ok := in.Schema.Field("isDone"); ok {
			rec, err := a.deps.Repos.Records.FindByIdentity(dbc, formrepo.Identity{
				FormType: in.Schema.Type,
				Date:     in.Date,
				Machine:  row.Machine,
				RowKey:   strconv.FormatUint(uint64(in.CheckpointID), 10),
			}, true)
			if err != nil {
				return err
			}
			now := a.deps.Now()
			if rec != nil {
				fields := in.Schema.ReadFields(rec.Fields)
				fields["isDone"] = false
				if err := a.deps.Repos.Records.UpdateFields(dbc, rec.ID, datatypes.JSONMap(fields), now); err != nil {
					return err
				}
			} else if err := a.createNotDone(dbc, in.Schema, row, now); err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	return out, err
}

// createNotDone inserts the checkpoint row of an unsaved day so the
// deviation shows as not done and the row carries its sign-off slots.
func (a *ncrAggregate) createNotDone(dbc dbctx.Context, s *forms.Schema, ncr *types.NonConformanceReport, now time.Time) error {
	rowIndex := 0
	cps, err := a.deps.Repos.Checkpoints.GetByIDs(dbc, []uint{ncr.CheckpointID})
	if err != nil {
		return err
	}
	if len(cps) == 1 && cps[0].FormType == s.Type {
		rowIndex = cps[0].SlNo
	}
	fields := s.ReadFields(nil)
	fields["isDone"] = false
	return createRecord(dbc, a.deps.Repos, s, &types.Record{
		FormType:    s.Type,
		RecordDate:  ncr.ReportDate,
		Machine:     ncr.Machine,
		RowKey:      strconv.FormatUint(uint64(ncr.CheckpointID), 10),
		RowIndex:    rowIndex,
		Fields:      datatypes.JSONMap(fields),
		LastUpdated: now,
	}, nil)
}

// Complete moves a Pending report to Completed. Signing a report that is
// no longer Pending is a conflict.
func (a *ncrAggregate) Complete(ctx context.Context, schema *forms.Schema, id uint, signature string) (*types.NonConformanceReport, error) {
	const op = "ncr.complete"
	if strings.TrimSpace(signature) == "" {
		return nil, MapError(op, ValidationError("signature is empty"))
	}
	deps := a.deps.Base
	var out *types.NonConformanceReport
	err := executeWrite(ctx, deps, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Repos.NCRs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil || (schema != nil && row.FormType != schema.Type) {
			return NotFoundError(fmt.Sprintf("non-conformance report %d not found", id))
		}
		if err := RequireStatusAllowed(row.Status, types.NCRStatusPending); err != nil {
			return ConflictError(fmt.Sprintf("non-conformance report %d is already %s", id, row.Status))
		}
		now := a.deps.Now()
		ok, err := deps.CASGuard.UpdateByStatus(dbc, types.NonConformanceReport{}.TableName(), id,
			[]string{types.NCRStatusPending},
			map[string]any{
				"status":     types.NCRStatusCompleted,
				"signature":  signature,
				"signed_at":  now,
				"updated_at": now,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("non-conformance report %d is already %s", id, row.Status)); err != nil {
			return err
		}
		row.Status = types.NCRStatusCompleted
		row.Signature = signature
		row.SignedAt = &now
		out = row
		return nil
	})
	return out, err
}
