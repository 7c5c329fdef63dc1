package forms

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type CustomColumnRepo interface {
	ListActive(dbc dbctx.Context, formType string) ([]*types.CustomColumn, error)
	GetByID(dbc dbctx.Context, id uint) (*types.CustomColumn, error)
	MaxDisplayOrder(dbc dbctx.Context, formType string) (int, error)
	Create(dbc dbctx.Context, col *types.CustomColumn) error
	UpdateLabel(dbc dbctx.Context, id uint, label string) error
	MarkDeleted(dbc dbctx.Context, id uint) error
}

type customColumnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomColumnRepo(db *gorm.DB, baseLog *logger.Logger) CustomColumnRepo {
	return &customColumnRepo{db: db, log: baseLog.With("repo", "CustomColumnRepo")}
}

func (r *customColumnRepo) ListActive(dbc dbctx.Context, formType string) ([]*types.CustomColumn, error) {
	var out []*types.CustomColumn
	err := dbc.DB(r.db).
		Where("form_type = ? AND is_deleted = ?", formType, false).
		Order("display_order ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *customColumnRepo) GetByID(dbc dbctx.Context, id uint) (*types.CustomColumn, error) {
	if id == 0 {
		return nil, nil
	}
	var out types.CustomColumn
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MaxDisplayOrder counts deleted columns too so orders are never reused.
func (r *customColumnRepo) MaxDisplayOrder(dbc dbctx.Context, formType string) (int, error) {
	var max int
	err := dbc.DB(r.db).
		Model(&types.CustomColumn{}).
		Where("form_type = ?", formType).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *customColumnRepo) Create(dbc dbctx.Context, col *types.CustomColumn) error {
	if col == nil {
		return nil
	}
	return dbc.DB(r.db).Create(col).Error
}

func (r *customColumnRepo) UpdateLabel(dbc dbctx.Context, id uint, label string) error {
	return dbc.DB(r.db).
		Model(&types.CustomColumn{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"label": label, "updated_at": time.Now().UTC()}).Error
}

func (r *customColumnRepo) MarkDeleted(dbc dbctx.Context, id uint) error {
	return dbc.DB(r.db).
		Model(&types.CustomColumn{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()}).Error
}
