package forms

import (
	"time"

	"gorm.io/datatypes"
)

// Record is one stored row of a form. The identity tuple
// (form_type, record_date, machine, shift, row_key) is unique; shift 0 means
// the form has no shift dimension and row_key is empty when a scope holds a
// single row.
type Record struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	FormType   string            `gorm:"column:form_type;not null;uniqueIndex:idx_record_identity,priority:1" json:"formType"`
	RecordDate datatypes.Date    `gorm:"column:record_date;not null;uniqueIndex:idx_record_identity,priority:2" json:"recordDate"`
	Machine    string            `gorm:"column:machine;not null;uniqueIndex:idx_record_identity,priority:3" json:"machine"`
	Shift      int               `gorm:"column:shift;not null;default:0;uniqueIndex:idx_record_identity,priority:4" json:"shift"`
	RowKey     string            `gorm:"column:row_key;not null;default:'';uniqueIndex:idx_record_identity,priority:5" json:"rowKey"`
	RowIndex   int               `gorm:"column:row_index;not null;default:0" json:"rowIndex"`
	Fields     datatypes.JSONMap `gorm:"column:fields" json:"fields"`

	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`

	Slots []RecordSlot `gorm:"foreignKey:RecordID" json:"slots,omitempty"`
}

func (Record) TableName() string { return "form_records" }

// RecordSlot is one position of a record's sign-off chain.
type RecordSlot struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID   uint       `gorm:"column:record_id;not null;uniqueIndex:idx_record_slot_role,priority:1" json:"recordId"`
	Role       string     `gorm:"column:role;not null;uniqueIndex:idx_record_slot_role,priority:2;index:idx_record_slot_pending,priority:1" json:"role"`
	Assignee   string     `gorm:"column:assignee;not null;default:'';index:idx_record_slot_pending,priority:2" json:"assignee"`
	Signature  string     `gorm:"column:signature;type:text" json:"signature,omitempty"`
	SignerName string     `gorm:"column:signer_name" json:"signerName,omitempty"`
	SignedAt   *time.Time `gorm:"column:signed_at" json:"signedAt,omitempty"`
}

func (RecordSlot) TableName() string { return "record_slots" }

func (s RecordSlot) Signed() bool { return s.SignedAt != nil }

// CustomValue holds one custom column value. It references its owner either
// by RecordID or by repeating the identity tuple, depending on the form.
type CustomValue struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	FormType   string          `gorm:"column:form_type;not null;uniqueIndex:idx_custom_value_identity,priority:1" json:"formType"`
	RecordID   *uint           `gorm:"column:record_id;uniqueIndex:idx_custom_value_record,priority:1" json:"recordId,omitempty"`
	RecordDate *datatypes.Date `gorm:"column:record_date;uniqueIndex:idx_custom_value_identity,priority:2" json:"recordDate,omitempty"`
	Machine    string          `gorm:"column:machine;not null;default:'';uniqueIndex:idx_custom_value_identity,priority:3" json:"machine,omitempty"`
	Shift      int             `gorm:"column:shift;not null;default:0;uniqueIndex:idx_custom_value_identity,priority:4" json:"shift,omitempty"`
	ColumnID   uint            `gorm:"column:column_id;not null;uniqueIndex:idx_custom_value_record,priority:2;uniqueIndex:idx_custom_value_identity,priority:5" json:"columnId"`
	Value      string          `gorm:"column:value;not null;default:''" json:"value"`
}

func (CustomValue) TableName() string { return "custom_values" }

const (
	NCRStatusPending   = "Pending"
	NCRStatusCompleted = "Completed"
)

// NonConformanceReport records a deviation raised against a checkpoint row.
type NonConformanceReport struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	FormType         string         `gorm:"column:form_type;not null;index:idx_ncr_scope,priority:1" json:"formType"`
	CheckpointID     uint           `gorm:"column:checkpoint_id;not null" json:"checkpointId"`
	ReportDate       datatypes.Date `gorm:"column:report_date;not null;index:idx_ncr_scope,priority:2" json:"reportDate"`
	Machine          string         `gorm:"column:machine;not null;index:idx_ncr_scope,priority:3" json:"machine"`
	Details          string         `gorm:"column:details;type:text" json:"details"`
	Correction       string         `gorm:"column:correction;type:text" json:"correction"`
	RootCause        string         `gorm:"column:root_cause;type:text" json:"rootCause"`
	CorrectiveAction string         `gorm:"column:corrective_action;type:text" json:"correctiveAction"`
	TargetDate       string         `gorm:"column:target_date" json:"targetDate"`
	Responsibility   string         `gorm:"column:responsibility" json:"responsibility"`
	AssignedTo       string         `gorm:"column:assigned_to;index" json:"assignedTo"`
	Status           string         `gorm:"column:status;not null;index" json:"status"`
	Signature        string         `gorm:"column:signature;type:text" json:"signature,omitempty"`
	SignedAt         *time.Time     `gorm:"column:signed_at" json:"signedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (NonConformanceReport) TableName() string { return "non_conformance_reports" }
