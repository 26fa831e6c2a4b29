package models

import (
	"database/sql/driver"
	"time"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RolePlayer:
		return true
	}
	return false
}

// Staff roles may perform administrator actions: lifecycle transitions,
// admin-only result reporting, dispute resolution.
func (r UserRole) Staff() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

type RoleList []UserRole

func (l RoleList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *RoleList) Scan(src interface{}) error  { return jsonScan(src, l) }

type User struct {
	ID           UserID    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Nickname     *string   `json:"nickname,omitempty" db:"nickname"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
