package domain

import (
	"errors"
	"time"
)

// Role identifies the role a user holds. Concrete values are deployment
// configuration (see RoleSet), not compile-time constants.
type Role int64

// RoleSet carries the role identifiers configured for this deployment.
type RoleSet struct {
	Customer   Role
	Translator Role
	Admin      Role
}

// UserStatus is the enabled/disabled flag persisted on a user row.
type UserStatus string

const (
	StatusEnabled  UserStatus = "1"
	StatusDisabled UserStatus = "0"
)

// NoReference is stored for company and department when none was submitted.
const NoReference int64 = 0

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrForbidden = errors.New("access forbidden")
var ErrUserLocked = errors.New("user is being modified by another request")

// User models an account on the platform.
type User struct {
	ID           int64      `json:"id"`
	Role         Role       `json:"role"`
	Name         string     `json:"name"`
	CompanyID    int64      `json:"company_id"`
	DepartmentID int64      `json:"department_id"`
	Email        string     `json:"email"`
	DobOrOrgID   string     `json:"dob_or_orgid"`
	Phone        string     `json:"phone"`
	Mobile       string     `json:"mobile"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}

// UserDetails is a user together with the targets of each association kind.
type UserDetails struct {
	User
	Blacklist []int64
	Languages []int64
	Towns     []int64
}
