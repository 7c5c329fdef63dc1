package user

import (
	"time"
)

const (
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
	RoleSupervisor = "supervisor"
	RoleHOD        = "hod"
	RoleHOF        = "hof"
)

// User is a directory entry. Role names match sign-off roles in lower case.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Password string `gorm:"not null;column:password" json:"-"`
	Role     string `gorm:"not null;index;column:role" json:"role"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
