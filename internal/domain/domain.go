package domain

import (
	"github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/domain/user"
)

type User = user.User

type CustomColumn = forms.CustomColumn
type Checkpoint = forms.Checkpoint
type Record = forms.Record
type RecordSlot = forms.RecordSlot
type CustomValue = forms.CustomValue
type NonConformanceReport = forms.NonConformanceReport

const (
	NCRStatusPending   = forms.NCRStatusPending
	NCRStatusCompleted = forms.NCRStatusCompleted
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&CustomColumn{},
		&Checkpoint{},
		&Record{},
		&RecordSlot{},
		&CustomValue{},
		&NonConformanceReport{},
	}
}
