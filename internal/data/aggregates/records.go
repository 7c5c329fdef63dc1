package aggregates

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

// RowInput is one submitted row of a batch. Shift falls back to the batch
// shift; RowKey is the checkpoint id on checkpoint-keyed forms and is
// derived from position otherwise. ID addresses an existing standalone row.
type RowInput struct {
	ID     uint
	Shift  int
	RowKey string
	Fields map[string]any
	Custom map[uint]any
}

// SaveBatch is everything submitted for one date and machine in one request.
type SaveBatch struct {
	Schema  *forms.Schema
	Date    datatypes.Date
	Machine string
	Shift   int
	Rows    []RowInput

	// ShiftMeta carries per-shift scalars (operator, supervisor, idle flag)
	// that are copied onto every row of that shift.
	ShiftMeta map[int]map[string]any
	// Assignments maps a chain role to the person it is assigned to when a
	// row does not carry its own assignment field.
	Assignments map[string]string
	// Signatures maps a chain role to a signature applied at save time.
	Signatures map[string]string
	SignerName string
}

type SaveResult struct {
	RecordIDs []uint `json:"recordIds"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
}

// SignInput addresses a record either by id or by identity scope.
type SignInput struct {
	Schema     *forms.Schema
	RecordID   uint
	Date       datatypes.Date
	Machine    string
	Shift      int
	Role       string
	Signature  string
	SignerName string
}

type SignResult struct {
	Role      string `json:"role"`
	RecordIDs []uint `json:"recordIds"`
}

type RecordAggregate interface {
	domainagg.Aggregate
	Save(ctx context.Context, in SaveBatch) (SaveResult, error)
	Sign(ctx context.Context, in SignInput) (SignResult, error)
	Delete(ctx context.Context, schema *forms.Schema, id uint) error
}

type RecordAggregateDeps struct {
	Base  BaseDeps
	Repos repos.Set
	Now   func() time.Time
}

type recordAggregate struct {
	deps RecordAggregateDeps
}

func NewRecordAggregate(deps RecordAggregateDeps) RecordAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &recordAggregate{deps: deps}
}

func (a *recordAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "records",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Tables:           []string{"form_records", "record_slots", "custom_values"},
		Notes:            "merge/replace upsert, sign-off writes, standalone delete",
	}
}

// preparedRow is a RowInput with identity resolved and fields coerced.
type preparedRow struct {
	id       uint
	shift    int
	rowKey   string
	rowIndex int
	fields   map[string]any
	assign   map[string]string
	custom   map[uint]any
}

func (a *recordAggregate) Save(ctx context.Context, in SaveBatch) (SaveResult, error) {
	const op = "records.save"
	var out SaveResult
	rows, err := prepareBatch(in)
	if err != nil {
		return out, MapError(op, err)
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		active, err := a.activeColumns(dbc, in.Schema.Type)
		if err != nil {
			return err
		}
		if in.Schema.Strategy == forms.StrategyReplace {
			out, err = a.replace(dbc, in, rows, active)
		} else {
			out, err = a.merge(dbc, in, rows, active)
		}
		return err
	})
	if err != nil {
		return SaveResult{}, err
	}
	a.deps.Base.Log.Debug("batch saved",
		"form", in.Schema.Type,
		"machine", in.Machine,
		"inserted", out.Inserted,
		"updated", out.Updated,
		"deleted", out.Deleted,
	)
	return out, nil
}

func prepareBatch(in SaveBatch) ([]preparedRow, error) {
	s := in.Schema
	if s == nil {
		return nil, ValidationError("form schema is required")
	}
	if time.Time(in.Date).IsZero() {
		return nil, ValidationError("date is required")
	}
	if !s.Standalone() && strings.TrimSpace(in.Machine) == "" {
		return nil, ValidationError("machine is required")
	}
	for role, sig := range in.Signatures {
		slot, ok := s.Slot(role)
		if !ok {
			return nil, ValidationError(fmt.Sprintf("unknown role %q", role))
		}
		if !slot.SignedAtSave && strings.TrimSpace(sig) != "" {
			return nil, ValidationError(fmt.Sprintf("%s signs through the sign-off queue", slot.Role))
		}
	}

	inputs := in.Rows
	if s.HasShift() && s.Strategy == forms.StrategyReplace {
		inputs = withMetaPlaceholders(s, in)
	}
	if len(inputs) == 0 {
		return nil, ValidationError("at least one row is required")
	}

	perShift := map[int]int{}
	seen := map[string]bool{}
	out := make([]preparedRow, 0, len(inputs))
	for i, r := range inputs {
		p := preparedRow{id: r.ID, rowIndex: i, custom: r.Custom}
		if s.HasShift() {
			p.shift = r.Shift
			if p.shift == 0 {
				p.shift = in.Shift
			}
			if !validShift(s, p.shift) {
				return nil, ValidationError(fmt.Sprintf("row %d: shift %d is not one of %v", i+1, p.shift, s.ShiftList()))
			}
		}
		perShift[p.shift]++

		switch {
		case s.Standalone():
			p.rowKey = r.RowKey
		case s.RowKey == forms.RowKeyCheckpoint:
			p.rowKey = strings.TrimSpace(r.RowKey)
			if p.rowKey == "" {
				return nil, ValidationError(fmt.Sprintf("row %d: checkpoint id is required", i+1))
			}
		case s.RowKey == forms.RowKeyIndex:
			p.rowKey = strconv.Itoa(perShift[p.shift])
		default:
			p.rowKey = ""
		}
		if !s.Standalone() {
			key := fmt.Sprintf("%d/%s", p.shift, p.rowKey)
			if seen[key] {
				return nil, ValidationError(fmt.Sprintf("row %d: duplicate row for shift %d key %q", i+1, p.shift, p.rowKey))
			}
			seen[key] = true
		}

		raw := make(map[string]any, len(r.Fields)+len(s.ShiftMeta))
		for k, v := range r.Fields {
			raw[k] = v
		}
		for k, v := range in.ShiftMeta[p.shift] {
			raw[k] = v
		}
		p.fields = s.CoerceFields(raw)
		p.assign = assignmentsFor(s, raw, in.Assignments)
		out = append(out, p)
	}
	return out, nil
}

// withMetaPlaceholders adds an empty row for every shift that only sent
// shift meta, so the meta survives a destructive replace.
func withMetaPlaceholders(s *forms.Schema, in SaveBatch) []RowInput {
	rows := append([]RowInput(nil), in.Rows...)
	has := map[int]bool{}
	for _, r := range in.Rows {
		sh := r.Shift
		if sh == 0 {
			sh = in.Shift
		}
		has[sh] = true
	}
	for _, sh := range s.ShiftList() {
		if has[sh] || len(in.ShiftMeta[sh]) == 0 {
			continue
		}
		rows = append(rows, RowInput{Shift: sh})
	}
	return rows
}

func validShift(s *forms.Schema, shift int) bool {
	for _, sh := range s.ShiftList() {
		if sh == shift {
			return true
		}
	}
	return false
}

func assignmentsFor(s *forms.Schema, raw map[string]any, batch map[string]string) map[string]string {
	out := map[string]string{}
	for _, slot := range s.Chain {
		var person string
		if slot.AssignField != "" {
			person = strings.TrimSpace(forms.TextOrEmpty(raw[slot.AssignField]))
		}
		if person == "" {
			for role, p := range batch {
				if strings.EqualFold(role, slot.Role) {
					person = strings.TrimSpace(p)
				}
			}
		}
		if person != "" {
			out[slot.Role] = person
		}
	}
	return out
}

func (a *recordAggregate) activeColumns(dbc dbctx.Context, formType string) (map[uint]bool, error) {
	cols, err := a.deps.Repos.Columns.ListActive(dbc, formType)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(cols))
	for _, c := range cols {
		out[c.ID] = true
	}
	return out, nil
}

func (a *recordAggregate) merge(dbc dbctx.Context, in SaveBatch, rows []preparedRow, active map[uint]bool) (SaveResult, error) {
	var res SaveResult
	now := a.deps.Now()
	for i := range rows {
		row := &rows[i]
		existing, err := a.findExisting(dbc, in, row)
		if err != nil {
			return res, err
		}
		var id uint
		if existing != nil {
			id = existing.ID
			if err := a.deps.Repos.Records.UpdateFields(dbc, id, datatypes.JSONMap(row.fields), now); err != nil {
				return res, err
			}
			if in.Schema.Standalone() {
				machine := strings.TrimSpace(in.Machine)
				if machine == "" {
					machine = existing.Machine
				}
				if err := a.deps.Repos.Records.Relocate(dbc, id, in.Date, machine, now); err != nil {
					return res, err
				}
			}
			for role, person := range row.assign {
				if err := a.deps.Repos.Slots.SetAssignee(dbc, []uint{id}, role, person); err != nil {
					return res, err
				}
			}
			res.Updated++
		} else {
			if in.Schema.Standalone() {
				row.rowKey = uuid.NewString()
			}
			rec, err := a.insert(dbc, in, *row, now)
			if err != nil {
				return res, err
			}
			id = rec.ID
			res.Inserted++
		}
		if err := a.writeCustom(dbc, in, *row, id, active); err != nil {
			return res, err
		}
		res.RecordIDs = append(res.RecordIDs, id)
	}
	if err := a.signAtSave(dbc, in, res.RecordIDs, now); err != nil {
		return res, err
	}
	return res, nil
}

func (a *recordAggregate) findExisting(dbc dbctx.Context, in SaveBatch, row *preparedRow) (*types.Record, error) {
	if in.Schema.Standalone() {
		if row.id == 0 {
			return nil, nil
		}
		rec, err := a.deps.Repos.Records.GetByID(dbc, row.id)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.FormType != in.Schema.Type {
			return nil, NotFoundError(fmt.Sprintf("record %d not found", row.id))
		}
		return rec, nil
	}
	return a.deps.Repos.Records.FindByIdentity(dbc, formrepo.Identity{
		FormType: in.Schema.Type,
		Date:     in.Date,
		Machine:  in.Machine,
		Shift:    row.shift,
		RowKey:   row.rowKey,
	}, true)
}

func (a *recordAggregate) insert(dbc dbctx.Context, in SaveBatch, row preparedRow, now time.Time) (*types.Record, error) {
	rec := &types.Record{
		FormType:    in.Schema.Type,
		RecordDate:  in.Date,
		Machine:     strings.TrimSpace(in.Machine),
		Shift:       row.shift,
		RowKey:      row.rowKey,
		RowIndex:    row.rowIndex,
		Fields:      datatypes.JSONMap(row.fields),
		LastUpdated: now,
	}
	if err := createRecord(dbc, a.deps.Repos, in.Schema, rec, row.assign); err != nil {
		return nil, err
	}
	return rec, nil
}

// createRecord inserts rec with one open slot per chain position.
func createRecord(dbc dbctx.Context, set repos.Set, s *forms.Schema, rec *types.Record, assign map[string]string) error {
	if err := set.Records.Create(dbc, rec); err != nil {
		return err
	}
	slots := make([]*types.RecordSlot, 0, len(s.Chain))
	for _, slot := range s.Chain {
		slots = append(slots, &types.RecordSlot{
			RecordID: rec.ID,
			Role:     slot.Role,
			Assignee: assign[slot.Role],
		})
	}
	return set.Slots.CreateMany(dbc, slots)
}

// customValues returns the custom values of row that the form's EAV policy
// keeps, keyed by record or by identity.
func (a *recordAggregate) customValues(in SaveBatch, row preparedRow, recordID uint, active map[uint]bool) []*types.CustomValue {
	var out []*types.CustomValue
	for colID, raw := range row.custom {
		if !active[colID] {
			a.deps.Base.Log.Warn("custom value for inactive column skipped", "form", in.Schema.Type, "column_id", colID)
			continue
		}
		value, keep := in.Schema.CoerceCustom(raw)
		if !keep {
			continue
		}
		cv := &types.CustomValue{FormType: in.Schema.Type, ColumnID: colID, Value: value}
		if in.Schema.EAVKey == forms.EAVKeyIdentity {
			cv.RecordDate = formrepo.IdentityDate(in.Date)
			cv.Machine = strings.TrimSpace(in.Machine)
			cv.Shift = row.shift
		} else {
			id := recordID
			cv.RecordID = &id
		}
		out = append(out, cv)
	}
	return out
}

func (a *recordAggregate) writeCustom(dbc dbctx.Context, in SaveBatch, row preparedRow, recordID uint, active map[uint]bool) error {
	for _, cv := range a.customValues(in, row, recordID, active) {
		if err := a.deps.Repos.CustomValues.Upsert(dbc, cv); err != nil {
			return err
		}
	}
	return nil
}

func (a *recordAggregate) signAtSave(dbc dbctx.Context, in SaveBatch, ids []uint, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	for role, sig := range in.Signatures {
		if strings.TrimSpace(sig) == "" {
			continue
		}
		slot, _ := in.Schema.Slot(role)
		if _, err := a.deps.Repos.Slots.SetSignature(dbc, ids, slot.Role, sig, strings.TrimSpace(in.SignerName), now); err != nil {
			return err
		}
	}
	return nil
}

func (a *recordAggregate) replace(dbc dbctx.Context, in SaveBatch, rows []preparedRow, active map[uint]bool) (SaveResult, error) {
	var res SaveResult
	now := a.deps.Now()
	scope := formrepo.Scope{FormType: in.Schema.Type, Date: in.Date, Machine: strings.TrimSpace(in.Machine)}
	if in.Schema.ReplaceScopeOrDefault() == forms.ScopeShift {
		if in.Shift == 0 {
			return res, ValidationError("shift is required")
		}
		sh := in.Shift
		scope.Shift = &sh
		for _, r := range rows {
			if r.shift != sh {
				return res, ValidationError(fmt.Sprintf("row for shift %d outside submitted shift %d", r.shift, sh))
			}
		}
	}

	existing, err := a.deps.Repos.Records.ListInScope(dbc, scope)
	if err != nil {
		return res, err
	}
	ids := make([]uint, 0, len(existing))
	for _, r := range existing {
		ids = append(ids, r.ID)
	}
	if in.Schema.EAVKey == forms.EAVKeyIdentity {
		if err := a.deps.Repos.CustomValues.DeleteByIdentityScope(dbc, scope); err != nil {
			return res, err
		}
	} else if err := a.deps.Repos.CustomValues.DeleteByRecordIDs(dbc, ids); err != nil {
		return res, err
	}
	if err := a.deps.Repos.Slots.DeleteByRecordIDs(dbc, ids); err != nil {
		return res, err
	}
	if err := a.deps.Repos.Records.DeleteByIDs(dbc, ids); err != nil {
		return res, err
	}
	res.Deleted = len(ids)

	// The scope is empty now, so custom values go in without conflict handling.
	var values []*types.CustomValue
	for _, row := range rows {
		rec, err := a.insert(dbc, in, row, now)
		if err != nil {
			return res, err
		}
		values = append(values, a.customValues(in, row, rec.ID, active)...)
		res.RecordIDs = append(res.RecordIDs, rec.ID)
		res.Inserted++
	}
	if err := a.deps.Repos.CustomValues.CreateMany(dbc, values); err != nil {
		return res, err
	}
	if err := a.signAtSave(dbc, in, res.RecordIDs, now); err != nil {
		return res, err
	}
	return res, nil
}

func (a *recordAggregate) Sign(ctx context.Context, in SignInput) (SignResult, error) {
	const op = "records.sign"
	var out SignResult
	if in.Schema == nil {
		return out, MapError(op, ValidationError("form schema is required"))
	}
	if strings.TrimSpace(in.Signature) == "" {
		return out, MapError(op, ValidationError("signature is empty"))
	}
	idx := in.Schema.SlotIndex(in.Role)
	if idx < 0 {
		return out, MapError(op, ValidationError(fmt.Sprintf("unknown role %q for %s", in.Role, in.Schema.Type)))
	}
	role := in.Schema.Chain[idx].Role

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		targets, err := a.signTargets(dbc, in)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(targets))
		for _, r := range targets {
			ids = append(ids, r.ID)
		}
		if in.Schema.StrictOrder && idx > 0 {
			if err := a.requirePriorSigned(dbc, in.Schema, ids, idx); err != nil {
				return err
			}
		}
		n, err := a.deps.Repos.Slots.SetSignature(dbc, ids, role, in.Signature, strings.TrimSpace(in.SignerName), a.deps.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFoundError(fmt.Sprintf("no %s slot on the addressed records", role))
		}
		out = SignResult{Role: role, RecordIDs: ids}
		return nil
	})
	return out, err
}

// signTargets resolves the records a signature lands on. A broadcast form
// expands a single record to every record sharing its day or shift.
func (a *recordAggregate) signTargets(dbc dbctx.Context, in SignInput) ([]*types.Record, error) {
	s := in.Schema
	scope := formrepo.Scope{FormType: s.Type, Date: in.Date, Machine: strings.TrimSpace(in.Machine)}
	shift := in.Shift

	if in.RecordID != 0 {
		rec, err := a.deps.Repos.Records.GetByID(dbc, in.RecordID)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.FormType != s.Type {
			return nil, NotFoundError(fmt.Sprintf("record %d not found", in.RecordID))
		}
		if s.Broadcast == forms.ScopeNone {
			return []*types.Record{rec}, nil
		}
		scope.Date, scope.Machine, shift = rec.RecordDate, rec.Machine, rec.Shift
	} else {
		if time.Time(in.Date).IsZero() || scope.Machine == "" {
			return nil, ValidationError("recordId or date and machine are required")
		}
		if s.Broadcast == forms.ScopeNone && (s.RowKey != forms.RowKeyNone || s.Standalone()) {
			return nil, ValidationError("recordId is required for single-row sign-off")
		}
	}

	switch {
	case s.Broadcast == forms.ScopeShift, s.Broadcast == forms.ScopeNone && s.HasShift():
		if shift == 0 {
			return nil, ValidationError("shift is required")
		}
		scope.Shift = &shift
	}
	recs, err := a.deps.Repos.Records.ListInScope(dbc, scope)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, NotFoundError(fmt.Sprintf("no %s records for %s on %s", s.Type, scope.Machine, domforms.FormatDay(scope.Date)))
	}
	return recs, nil
}

func (a *recordAggregate) requirePriorSigned(dbc dbctx.Context, s *forms.Schema, ids []uint, idx int) error {
	slots, err := a.deps.Repos.Slots.ListByRecordIDs(dbc, ids)
	if err != nil {
		return err
	}
	signed := map[string]bool{}
	for _, sl := range slots {
		if sl.Signed() {
			signed[fmt.Sprintf("%d/%s", sl.RecordID, strings.ToLower(sl.Role))] = true
		}
	}
	for _, id := range ids {
		for _, prev := range s.Chain[:idx] {
			if !signed[fmt.Sprintf("%d/%s", id, strings.ToLower(prev.Role))] {
				return ValidationError(fmt.Sprintf("%s must sign before %s", prev.Role, s.Chain[idx].Role))
			}
		}
	}
	return nil
}

// Delete removes a standalone record with its slots and custom values.
func (a *recordAggregate) Delete(ctx context.Context, schema *forms.Schema, id uint) error {
	const op = "records.delete"
	if schema == nil || !schema.AdminDelete {
		return MapError(op, ValidationError("records of this form cannot be deleted"))
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rec, err := a.deps.Repos.Records.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if rec == nil || rec.FormType != schema.Type {
			return NotFoundError(fmt.Sprintf("record %d not found", id))
		}
		ids := []uint{id}
		if err := a.deps.Repos.CustomValues.DeleteByRecordIDs(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.Repos.Slots.DeleteByRecordIDs(dbc, ids); err != nil {
			return err
		}
		return a.deps.Repos.Records.DeleteByIDs(dbc, ids)
	})
}
