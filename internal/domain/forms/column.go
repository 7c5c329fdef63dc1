package forms

import "time"

// CustomColumn is an admin-defined extra attribute of a form.
// Rows are never removed once created; IsDeleted hides them.
type CustomColumn struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FormType     string `gorm:"column:form_type;not null;index:idx_custom_column_form_order,priority:1" json:"formType"`
	Label        string `gorm:"column:label;not null" json:"label"`
	DisplayOrder int    `gorm:"column:display_order;not null;index:idx_custom_column_form_order,priority:2" json:"displayOrder"`
	IsDeleted    bool   `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CustomColumn) TableName() string { return "custom_columns" }

// Checkpoint is a master checklist row for checkpoint-keyed forms.
type Checkpoint struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FormType    string `gorm:"column:form_type;not null;index" json:"formType"`
	SlNo        int    `gorm:"column:sl_no;not null" json:"slNo"`
	Description string `gorm:"column:description;not null" json:"description"`
	Method      string `gorm:"column:method" json:"method"`
	IsDeleted   bool   `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Checkpoint) TableName() string { return "checkpoints" }
