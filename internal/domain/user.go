package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleBarber UserRole = "barber"
	UserRoleAdmin  UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleBarber || r == UserRoleAdmin
}

// SenderType maps the caller's role onto the chat sender type.
func (r UserRole) SenderType() SenderType {
	switch r {
	case UserRoleBarber:
		return SenderTypeBarber
	case UserRoleAdmin:
		return SenderTypeAdmin
	default:
		return SenderTypeUser
	}
}

type User struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         UserRole  `json:"role"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UserSummary struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage"`
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}
