package forms

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type CheckpointRepo interface {
	ListActive(dbc dbctx.Context, formType string) ([]*types.Checkpoint, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Checkpoint, error)
	Count(dbc dbctx.Context, formType string) (int64, error)
	Create(dbc dbctx.Context, rows []*types.Checkpoint) error
	Update(dbc dbctx.Context, row *types.Checkpoint) error
	MarkDeletedExcept(dbc dbctx.Context, formType string, keep []uint) error
}

type checkpointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckpointRepo(db *gorm.DB, baseLog *logger.Logger) CheckpointRepo {
	return &checkpointRepo{db: db, log: baseLog.With("repo", "CheckpointRepo")}
}

func (r *checkpointRepo) ListActive(dbc dbctx.Context, formType string) ([]*types.Checkpoint, error) {
	var out []*types.Checkpoint
	err := dbc.DB(r.db).
		Where("form_type = ? AND is_deleted = ?", formType, false).
		Order("sl_no ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *checkpointRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Checkpoint, error) {
	var out []*types.Checkpoint
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *checkpointRepo) Count(dbc dbctx.Context, formType string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Checkpoint{}).Where("form_type = ?", formType).Count(&n).Error
	return n, err
}

func (r *checkpointRepo) Create(dbc dbctx.Context, rows []*types.Checkpoint) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *checkpointRepo) Update(dbc dbctx.Context, row *types.Checkpoint) error {
	if row == nil || row.ID == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Checkpoint{}).
		Where("id = ? AND form_type = ?", row.ID, row.FormType).
		Updates(map[string]interface{}{
			"sl_no":       row.SlNo,
			"description": row.Description,
			"method":      row.Method,
			"is_deleted":  false,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *checkpointRepo) MarkDeletedExcept(dbc dbctx.Context, formType string, keep []uint) error {
	q := dbc.DB(r.db).Model(&types.Checkpoint{}).Where("form_type = ? AND is_deleted = ?", formType, false)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()}).Error
}
