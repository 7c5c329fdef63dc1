package forms

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type CustomValueRepo interface {
	Upsert(dbc dbctx.Context, row *types.CustomValue) error
	CreateMany(dbc dbctx.Context, rows []*types.CustomValue) error
	ListByRecordIDs(dbc dbctx.Context, recordIDs []uint) ([]*types.CustomValue, error)
	ListByIdentityScope(dbc dbctx.Context, scope Scope) ([]*types.CustomValue, error)
	ListByIdentityRange(dbc dbctx.Context, rng Range) ([]*types.CustomValue, error)
	ListByColumn(dbc dbctx.Context, columnID uint) ([]*types.CustomValue, error)
	DeleteByRecordIDs(dbc dbctx.Context, recordIDs []uint) error
	DeleteByIdentityScope(dbc dbctx.Context, scope Scope) error
}

type customValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomValueRepo(db *gorm.DB, baseLog *logger.Logger) CustomValueRepo {
	return &customValueRepo{db: db, log: baseLog.With("repo", "CustomValueRepo")}
}

// Upsert writes value for (record, column) or (identity, column),
// whichever key the row carries.
func (r *customValueRepo) Upsert(dbc dbctx.Context, row *types.CustomValue) error {
	if row == nil {
		return nil
	}
	conflict := clause.OnConflict{DoUpdates: clause.AssignmentColumns([]string{"value"})}
	if row.RecordID != nil {
		conflict.Columns = []clause.Column{{Name: "record_id"}, {Name: "column_id"}}
	} else {
		conflict.Columns = []clause.Column{
			{Name: "form_type"}, {Name: "record_date"}, {Name: "machine"}, {Name: "shift"}, {Name: "column_id"},
		}
	}
	return dbc.DB(r.db).Clauses(conflict).Create(row).Error
}

func (r *customValueRepo) CreateMany(dbc dbctx.Context, rows []*types.CustomValue) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *customValueRepo) ListByRecordIDs(dbc dbctx.Context, recordIDs []uint) ([]*types.CustomValue, error) {
	var out []*types.CustomValue
	if len(recordIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Where("record_id IN ?", recordIDs).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *customValueRepo) ListByIdentityScope(dbc dbctx.Context, scope Scope) ([]*types.CustomValue, error) {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND record_id IS NULL AND record_date = ? AND machine = ?",
		scope.FormType, scope.Date, scope.Machine,
	)
	if scope.Shift != nil {
		q = q.Where("shift = ?", *scope.Shift)
	}
	var out []*types.CustomValue
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *customValueRepo) ListByIdentityRange(dbc dbctx.Context, rng Range) ([]*types.CustomValue, error) {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND record_id IS NULL AND record_date >= ? AND record_date <= ?",
		rng.FormType, rng.From, rng.To,
	)
	if rng.Machine != "" {
		q = q.Where("machine = ?", rng.Machine)
	}
	var out []*types.CustomValue
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *customValueRepo) ListByColumn(dbc dbctx.Context, columnID uint) ([]*types.CustomValue, error) {
	var out []*types.CustomValue
	err := dbc.DB(r.db).Where("column_id = ?", columnID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *customValueRepo) DeleteByRecordIDs(dbc dbctx.Context, recordIDs []uint) error {
	if len(recordIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("record_id IN ?", recordIDs).Delete(&types.CustomValue{}).Error
}

func (r *customValueRepo) DeleteByIdentityScope(dbc dbctx.Context, scope Scope) error {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND record_id IS NULL AND record_date = ? AND machine = ?",
		scope.FormType, scope.Date, scope.Machine,
	)
	if scope.Shift != nil {
		q = q.Where("shift = ?", *scope.Shift)
	}
	return q.Delete(&types.CustomValue{}).Error
}

// IdentityDate is a convenience for building identity-keyed values.
func IdentityDate(d datatypes.Date) *datatypes.Date { return &d }
