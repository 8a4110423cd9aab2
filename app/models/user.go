package models

import "time"

// Role is the closed set of account roles. There is no hierarchy beyond
// treasurer vs. parent.
type Role string

const (
	RoleTreasurer Role = "treasurer"
	RoleParent    Role = "parent"
)

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            Role       `json:"role" validate:"required,oneof=treasurer parent"`
	HideFundBalance bool       `json:"hide_fund_balance"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

func (u *User) IsTreasurer() bool {
	return u.Role == RoleTreasurer
}

// FullName returns "First Last", falling back to the email address.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// SchoolClass is the tenancy unit: every payment request, transaction,
// expense and bank account belongs to exactly one class.
type SchoolClass struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required"`
	TeacherID  *string   `json:"teacher_id,omitempty"`
	SchoolYear string    `json:"school_year,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StudentProfile links a child to a class and, optionally, to the parent
// account that logs in and pays. The variable symbol is the unique
// bank-transfer matching code for this child. Profiles without a parent
// link are managed entirely by the treasurer.
type StudentProfile struct {
	ID             string    `json:"id"`
	SchoolClassID  string    `json:"school_class_id" validate:"required,uuid"`
	ParentID       *string   `json:"parent_id,omitempty"`
	ChildName      string    `json:"child_name" validate:"required"`
	VariableSymbol string    `json:"variable_symbol" validate:"required,max=10,numeric"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`

	Parent *User `json:"parent,omitempty"`
}
