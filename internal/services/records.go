package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
	"github.com/yungbote/disaforms-backend/internal/report"
)

type DetailsQuery struct {
	FormType string
	Date     string
	Machine  string
	Shift    int
}

// Details is the merged view of one date and machine: stored rows with
// zero-defaulted fields, custom values in registry order, slot states and
// the people each assignable role can be routed to.
type Details struct {
	Form      *forms.Schema                 `json:"form"`
	Date      string                        `json:"date"`
	Machine   string                        `json:"machine"`
	Shift     int                           `json:"shift,omitempty"`
	Columns   []*types.CustomColumn         `json:"columns"`
	Rows      []report.MergedRow            `json:"rows"`
	ShiftMeta map[int]map[string]any        `json:"shiftMeta,omitempty"`
	Signoffs  []report.Signoff              `json:"signoffs,omitempty"`
	Totals    *report.Group                 `json:"totals,omitempty"`
	Options   map[string][]string           `json:"options"`
	NCRs      []*types.NonConformanceReport `json:"ncrs,omitempty"`
}

type RowRequest struct {
	ID           uint           `json:"id,omitempty"`
	Shift        int            `json:"shift,omitempty"`
	RowKey       string         `json:"rowKey,omitempty"`
	CheckpointID uint           `json:"checkpointId,omitempty"`
	Fields       map[string]any `json:"fields"`
	Custom       map[string]any `json:"custom,omitempty"`
}

type SaveRequest struct {
	Date        string                    `json:"date"`
	Machine     string                    `json:"machine"`
	Shift       int                       `json:"shift,omitempty"`
	Rows        []RowRequest              `json:"rows"`
	ShiftMeta   map[string]map[string]any `json:"shiftMeta,omitempty"`
	Assignments map[string]string         `json:"assignments,omitempty"`
	Signatures  map[string]string         `json:"signatures,omitempty"`
	SignerName  string                    `json:"signerName,omitempty"`
}

// RecordView is one stored record as listed for standalone forms.
type RecordView struct {
	Date    string `json:"date"`
	Machine string `json:"machine,omitempty"`
	report.MergedRow
}

type RecordService interface {
	Details(ctx context.Context, q DetailsQuery) (*Details, error)
	Save(ctx context.Context, formType string, req SaveRequest) (aggregates.SaveResult, error)
	List(ctx context.Context, q RangeQuery) ([]RecordView, error)
	Delete(ctx context.Context, formType string, id uint) error
	LastValue(ctx context.Context, formType, field string) (any, error)
}

type recordService struct {
	log   *logger.Logger
	cat   *forms.Catalogue
	repos repos.Set
	agg   aggregates.RecordAggregate
}

func NewRecordService(baseLog *logger.Logger, cat *forms.Catalogue, r repos.Set, agg aggregates.RecordAggregate) RecordService {
	return &recordService{
		log:   baseLog.With("service", "RecordService"),
		cat:   cat,
		repos: r,
		agg:   agg,
	}
}

func (s *recordService) Details(ctx context.Context, q DetailsQuery) (*Details, error) {
	const op = "records.details"
	schema, err := s.cat.Get(q.FormType)
	if err != nil {
		return nil, err
	}
	if schema.Standalone() {
		return nil, domainagg.Validation(op, schema.Type+" rows are listed by date range")
	}
	date, err := requireDay(op, "date", q.Date)
	if err != nil {
		return nil, err
	}
	machine := strings.TrimSpace(q.Machine)
	if machine == "" {
		return nil, domainagg.Validation(op, "machine is required")
	}
	scope := formrepo.Scope{FormType: schema.Type, Date: date, Machine: machine}
	if schema.HasShift() && q.Shift > 0 {
		shift := q.Shift
		scope.Shift = &shift
	}

	dbc := dbctx.Context{Ctx: ctx}
	in, err := loadScope(dbc, s.repos, schema, scope)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := &Details{
		Form:    schema,
		Date:    domforms.FormatDay(date),
		Machine: machine,
		Shift:   q.Shift,
		Columns: in.Columns,
		NCRs:    in.NCRs,
		Options: map[string][]string{},
	}
	var group *report.Group
	if groups := report.Assemble(in); len(groups) > 0 {
		group = &groups[0]
		out.Rows = group.Rows
		out.Signoffs = group.Signoffs
		if schema.Totals {
			out.Totals = &report.Group{FieldTotals: group.FieldTotals, CustomTotals: group.CustomTotals, GrandTotal: group.GrandTotal}
		}
	}
	if schema.RowKey == forms.RowKeyCheckpoint {
		active, err := s.repos.Checkpoints.ListActive(dbc, schema.Type)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		out.Rows = withCheckpointRows(schema, active, out.Rows, len(in.Columns))
	}
	if out.Rows == nil {
		out.Rows = []report.MergedRow{}
	}
	out.ShiftMeta = shiftMetaOf(schema, out.Rows)

	for _, role := range schema.AssignRoles {
		names, err := s.repos.Users.ListUsernamesByRole(dbc, role)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		if names == nil {
			names = []string{}
		}
		out.Options[role] = names
	}
	return out, nil
}

// withCheckpointRows lists one row per active checkpoint, in master order,
// followed by stored rows whose checkpoint has since been removed.
func withCheckpointRows(s *forms.Schema, active []*types.Checkpoint, stored []report.MergedRow, ncols int) []report.MergedRow {
	byKey := make(map[string]report.MergedRow, len(stored))
	for _, r := range stored {
		byKey[r.RowKey] = r
	}
	out := make([]report.MergedRow, 0, len(active)+len(stored))
	used := map[string]bool{}
	for _, cp := range active {
		key := strconv.FormatUint(uint64(cp.ID), 10)
		row, ok := byKey[key]
		if !ok {
			row = report.BlankRow(s, ncols)
			row.RowKey = key
		}
		row.RowIndex = cp.SlNo
		row.Label, row.Method = cp.Description, cp.Method
		used[key] = true
		out = append(out, row)
	}
	for _, r := range stored {
		if !used[r.RowKey] {
			out = append(out, r)
		}
	}
	return out
}

func shiftMetaOf(s *forms.Schema, rows []report.MergedRow) map[int]map[string]any {
	if len(s.ShiftMeta) == 0 {
		return nil
	}
	out := map[int]map[string]any{}
	for _, r := range rows {
		if _, ok := out[r.Shift]; ok {
			continue
		}
		meta := make(map[string]any, len(s.ShiftMeta))
		for _, f := range s.ShiftMeta {
			meta[f.Key] = r.Fields[f.Key]
		}
		out[r.Shift] = meta
	}
	return out
}

func (s *recordService) Save(ctx context.Context, formType string, req SaveRequest) (aggregates.SaveResult, error) {
	const op = "records.save"
	schema, err := s.cat.Get(formType)
	if err != nil {
		return aggregates.SaveResult{}, err
	}
	date, err := requireDay(op, "date", req.Date)
	if err != nil {
		return aggregates.SaveResult{}, err
	}
	batch := aggregates.SaveBatch{
		Schema:      schema,
		Date:        date,
		Machine:     strings.TrimSpace(req.Machine),
		Shift:       req.Shift,
		Assignments: req.Assignments,
		Signatures:  req.Signatures,
		SignerName:  strings.TrimSpace(req.SignerName),
	}
	if len(req.ShiftMeta) > 0 {
		batch.ShiftMeta = make(map[int]map[string]any, len(req.ShiftMeta))
		for k, meta := range req.ShiftMeta {
			shift, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				return aggregates.SaveResult{}, domainagg.Validation(op, fmt.Sprintf("shiftMeta key %q is not a shift", k))
			}
			batch.ShiftMeta[shift] = meta
		}
	}
	for i, r := range req.Rows {
		row := aggregates.RowInput{ID: r.ID, Shift: r.Shift, RowKey: strings.TrimSpace(r.RowKey), Fields: r.Fields}
		if r.CheckpointID > 0 {
			row.RowKey = strconv.FormatUint(uint64(r.CheckpointID), 10)
		}
		if len(r.Custom) > 0 {
			row.Custom = make(map[uint]any, len(r.Custom))
			for k, v := range r.Custom {
				id, err := strconv.ParseUint(strings.TrimSpace(k), 10, 64)
				if err != nil || id == 0 {
					return aggregates.SaveResult{}, domainagg.Validation(op, fmt.Sprintf("row %d: custom key %q is not a column id", i+1, k))
				}
				row.Custom[uint(id)] = v
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	return s.agg.Save(ctx, batch)
}

func (s *recordService) List(ctx context.Context, q RangeQuery) ([]RecordView, error) {
	const op = "records.list"
	schema, rng, err := resolveRange(op, s.cat, q)
	if err != nil {
		return nil, err
	}
	in, err := loadRange(dbctx.Context{Ctx: ctx}, s.repos, schema, rng)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := []RecordView{}
	for _, g := range report.Assemble(in) {
		for _, row := range g.Rows {
			out = append(out, RecordView{Date: g.Date, Machine: g.Machine, MergedRow: row})
		}
	}
	return out, nil
}

func (s *recordService) Delete(ctx context.Context, formType string, id uint) error {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return err
	}
	if err := s.agg.Delete(ctx, schema, id); err != nil {
		return err
	}
	s.log.Info("record deleted", "form", schema.Type, "record_id", id)
	return nil
}

// LastValue returns a field listed in the form's lastValueFields from the
// most recently inserted record, or 0 when the form has no records.
func (s *recordService) LastValue(ctx context.Context, formType, field string) (any, error) {
	const op = "records.last_value"
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range schema.LastValueFields {
		if f == field {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, domainagg.Validation(op, fmt.Sprintf("%s does not track %q", schema.Type, field))
	}
	rec, err := s.repos.Records.Latest(dbctx.Context{Ctx: ctx}, schema.Type)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rec == nil {
		return 0, nil
	}
	return schema.ReadFields(rec.Fields)[field], nil
}
