package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTenant Role = "tenant"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTenant
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Role     Role
	TenantID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsTenant() bool {
	return p.Role == RoleTenant
}
