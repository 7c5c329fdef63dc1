package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	"github.com/yungbote/disaforms-backend/internal/data/repos/user"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CustomColumnRepo = forms.CustomColumnRepo
type CheckpointRepo = forms.CheckpointRepo
type RecordRepo = forms.RecordRepo
type SlotRepo = forms.SlotRepo
type CustomValueRepo = forms.CustomValueRepo
type NCRRepo = forms.NCRRepo

// Set bundles every repository over one connection.
type Set struct {
	Users        UserRepo
	Columns      CustomColumnRepo
	Checkpoints  CheckpointRepo
	Records      RecordRepo
	Slots        SlotRepo
	CustomValues CustomValueRepo
	NCRs         NCRRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:        user.NewUserRepo(db, log),
		Columns:      forms.NewCustomColumnRepo(db, log),
		Checkpoints:  forms.NewCheckpointRepo(db, log),
		Records:      forms.NewRecordRepo(db, log),
		Slots:        forms.NewSlotRepo(db, log),
		CustomValues: forms.NewCustomValueRepo(db, log),
		NCRs:         forms.NewNCRRepo(db, log),
	}
}
