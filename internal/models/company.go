package models

import (
	"time"

	"github.com/google/uuid"
)

// JoinCodeLength is the length of a company share code.
const JoinCodeLength = 8

// Company is a tenant. Its creator is always treated as an admin.
type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	JoinCode  string    `json:"join_code" db:"join_code"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserCompany is a membership row.
type UserCompany struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	IsBlocked bool      `json:"is_blocked" db:"is_blocked"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

// Active reports whether the membership grants access to company data.
func (m *UserCompany) Active() bool {
	return m != nil && !m.IsBlocked
}

// CompanyMembership is a company as seen by one of its members.
type CompanyMembership struct {
	Company
	IsAdmin   bool `json:"is_admin"`
	IsBlocked bool `json:"is_blocked"`
}

// CompanyUser is a row of the admin user list.
type CompanyUser struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Email     *string   `json:"email" db:"email"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	IsBlocked bool      `json:"is_blocked" db:"is_blocked"`
	IsCreator bool      `json:"is_creator" db:"is_creator"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}
