package forms

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type SlotRepo interface {
	CreateMany(dbc dbctx.Context, rows []*types.RecordSlot) error
	ListByRecordIDs(dbc dbctx.Context, recordIDs []uint) ([]*types.RecordSlot, error)
	SetAssignee(dbc dbctx.Context, recordIDs []uint, role, assignee string) error
	SetSignature(dbc dbctx.Context, recordIDs []uint, role, signature, signer string, at time.Time) (int64, error)
	DeleteByRecordIDs(dbc dbctx.Context, recordIDs []uint) error
}

type slotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSlotRepo(db *gorm.DB, baseLog *logger.Logger) SlotRepo {
	return &slotRepo{db: db, log: baseLog.With("repo", "SlotRepo")}
}

func (r *slotRepo) CreateMany(dbc dbctx.Context, rows []*types.RecordSlot) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *slotRepo) ListByRecordIDs(dbc dbctx.Context, recordIDs []uint) ([]*types.RecordSlot, error) {
	var out []*types.RecordSlot
	if len(recordIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("record_id IN ?", recordIDs).
		Order("record_id ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *slotRepo) SetAssignee(dbc dbctx.Context, recordIDs []uint, role, assignee string) error {
	if len(recordIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.RecordSlot{}).
		Where("record_id IN ? AND role = ?", recordIDs, role).
		Update("assignee", assignee).Error
}

func (r *slotRepo) SetSignature(dbc dbctx.Context, recordIDs []uint, role, signature, signer string, at time.Time) (int64, error) {
	if len(recordIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.RecordSlot{}).
		Where("record_id IN ? AND role = ?", recordIDs, role).
		Updates(map[string]interface{}{
			"signature":   signature,
			"signer_name": signer,
			"signed_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *slotRepo) DeleteByRecordIDs(dbc dbctx.Context, recordIDs []uint) error {
	if len(recordIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("record_id IN ?", recordIDs).Delete(&types.RecordSlot{}).Error
}
