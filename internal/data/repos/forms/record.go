package forms

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

// Identity addresses exactly one record of a form.
type Identity struct {
	FormType string
	Date     datatypes.Date
	Machine  string
	Shift    int
	RowKey   string
}

// Scope addresses every record of a form on a date and machine, optionally
// narrowed to one shift.
type Scope struct {
	FormType string
	Date     datatypes.Date
	Machine  string
	Shift    *int
}

// Range filters records by inclusive date bounds and an optional machine.
type Range struct {
	FormType string
	From     datatypes.Date
	To       datatypes.Date
	Machine  string
}

// PendingQuery selects records whose slot for Role is unsigned.
// Assignee narrows to one person when non-empty.
type PendingQuery struct {
	FormType string
	Role     string
	Assignee string
}

type RecordRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Record, error)
	FindByIdentity(dbc dbctx.Context, id Identity, forUpdate bool) (*types.Record, error)
	ListInScope(dbc dbctx.Context, scope Scope) ([]*types.Record, error)
	ListRange(dbc dbctx.Context, rng Range) ([]*types.Record, error)
	ListPending(dbc dbctx.Context, q PendingQuery) ([]*types.Record, error)
	Latest(dbc dbctx.Context, formType string) (*types.Record, error)
	Create(dbc dbctx.Context, rec *types.Record) error
	UpdateFields(dbc dbctx.Context, id uint, fields datatypes.JSONMap, at time.Time) error
	Relocate(dbc dbctx.Context, id uint, date datatypes.Date, machine string, at time.Time) error
	DeleteByIDs(dbc dbctx.Context, ids []uint) error
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{db: db, log: baseLog.With("repo", "RecordRepo")}
}

func ordered(q *gorm.DB) *gorm.DB {
	return q.Order("record_date ASC").Order("machine ASC").Order("shift ASC").Order("row_index ASC").Order("id ASC")
}

func (r *recordRepo) GetByID(dbc dbctx.Context, id uint) (*types.Record, error) {
	if id == 0 {
		return nil, nil
	}
	var out types.Record
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIdentity locks the row on postgres when forUpdate is set.
func (r *recordRepo) FindByIdentity(dbc dbctx.Context, id Identity, forUpdate bool) (*types.Record, error) {
	q := dbc.DB(r.db)
	if forUpdate && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Record
	err := q.Where(
		"form_type = ? AND record_date = ? AND machine = ? AND shift = ? AND row_key = ?",
		id.FormType, id.Date, id.Machine, id.Shift, id.RowKey,
	).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *recordRepo) ListInScope(dbc dbctx.Context, scope Scope) ([]*types.Record, error) {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND record_date = ? AND machine = ?",
		scope.FormType, scope.Date, scope.Machine,
	)
	if scope.Shift != nil {
		q = q.Where("shift = ?", *scope.Shift)
	}
	var out []*types.Record
	err := ordered(q).Find(&out).Error
	return out, err
}

func (r *recordRepo) ListRange(dbc dbctx.Context, rng Range) ([]*types.Record, error) {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND record_date >= ? AND record_date <= ?",
		rng.FormType, rng.From, rng.To,
	)
	if rng.Machine != "" {
		q = q.Where("machine = ?", rng.Machine)
	}
	var out []*types.Record
	err := ordered(q).Find(&out).Error
	return out, err
}

func (r *recordRepo) ListPending(dbc dbctx.Context, q PendingQuery) ([]*types.Record, error) {
	tx := dbc.DB(r.db).
		Model(&types.Record{}).
		Select("form_records.*").
		Joins("JOIN record_slots ON record_slots.record_id = form_records.id").
		Where("form_records.form_type = ? AND record_slots.role = ? AND record_slots.signed_at IS NULL", q.FormType, q.Role)
	if q.Assignee != "" {
		tx = tx.Where("record_slots.assignee = ?", q.Assignee)
	}
	var out []*types.Record
	err := tx.
		Order("form_records.record_date DESC").
		Order("form_records.machine ASC").
		Order("form_records.shift ASC").
		Order("form_records.row_index ASC").
		Order("form_records.id ASC").
		Find(&out).Error
	return out, err
}

// Latest is the most recently inserted record, whatever its date.
func (r *recordRepo) Latest(dbc dbctx.Context, formType string) (*types.Record, error) {
	var out types.Record
	err := dbc.DB(r.db).
		Where("form_type = ?", formType).
		Order("id DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *recordRepo) Create(dbc dbctx.Context, rec *types.Record) error {
	if rec == nil {
		return nil
	}
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now().UTC()
	}
	return dbc.DB(r.db).Omit(clause.Associations).Create(rec).Error
}

func (r *recordRepo) UpdateFields(dbc dbctx.Context, id uint, fields datatypes.JSONMap, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"fields": fields, "last_updated": at}).Error
}

// Relocate moves a standalone record to another date and machine.
func (r *recordRepo) Relocate(dbc dbctx.Context, id uint, date datatypes.Date, machine string, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"record_date": date, "machine": machine, "last_updated": at}).Error
}

func (r *recordRepo) DeleteByIDs(dbc dbctx.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Record{}).Error
}
