package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleDispatcher UserRole = "DISPATCHER"
	UserRoleViewer     UserRole = "VIEWER"
)

// Principal identifies the operator calling the query API. Issuance and
// role management belong to the platform's user service; the engine only
// verifies the token.
type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}
