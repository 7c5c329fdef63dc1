package forms

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type NCRRepo interface {
	Create(dbc dbctx.Context, row *types.NonConformanceReport) error
	GetByID(dbc dbctx.Context, id uint) (*types.NonConformanceReport, error)
	ListInScope(dbc dbctx.Context, scope Scope) ([]*types.NonConformanceReport, error)
	ListRange(dbc dbctx.Context, rng Range) ([]*types.NonConformanceReport, error)
	ListPending(dbc dbctx.Context, formType, assignee string) ([]*types.NonConformanceReport, error)
}

type ncrRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNCRRepo(db *gorm.DB, baseLog *logger.Logger) NCRRepo {
	return &ncrRepo{db: db, log: baseLog.With("repo", "NCRRepo")}
}

func (r *ncrRepo) Create(dbc dbctx.Context, row *types.NonConformanceReport) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *ncrRepo) GetByID(dbc dbctx.Context, id uint) (*types.NonConformanceReport, error) {
	if id == 0 {
		return nil, nil
	}
	var out types.NonConformanceReport
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ncrRepo) ListInScope(dbc dbctx.Context, scope Scope) ([]*types.NonConformanceReport, error) {
	var out []*types.NonConformanceReport
	err := dbc.DB(r.db).
		Where("form_type = ? AND report_date = ? AND machine = ?", scope.FormType, scope.Date, scope.Machine).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *ncrRepo) ListRange(dbc dbctx.Context, rng Range) ([]*types.NonConformanceReport, error) {
	q := dbc.DB(r.db).Where(
		"form_type = ? AND report_date >= ? AND report_date <= ?",
		rng.FormType, rng.From, rng.To,
	)
	if rng.Machine != "" {
		q = q.Where("machine = ?", rng.Machine)
	}
	var out []*types.NonConformanceReport
	err := q.Order("report_date ASC").Order("id ASC").Find(&out).Error
	return out, err
}

func (r *ncrRepo) ListPending(dbc dbctx.Context, formType, assignee string) ([]*types.NonConformanceReport, error) {
	q := dbc.DB(r.db).Where("form_type = ? AND status = ?", formType, types.NCRStatusPending)
	if assignee != "" {
		q = q.Where("assigned_to = ?", assignee)
	}
	var out []*types.NonConformanceReport
	err := q.Order("report_date DESC").Order("id ASC").Find(&out).Error
	return out, err
}
