package service

import "github.com/google/uuid"

// Role is the already-resolved authorization level of a request actor.
// Resolution happens at the edge (JWT claims); services only ever ask for
// capabilities, never compare role strings at call sites.
type Role string

const (
	RoleAttendant Role = "attendant"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// Elevated reports whether the role may certify a drawer without a second
// review step and validate attendant closures.
func (r Role) Elevated() bool { return r == RoleManager || r == RoleAdmin }

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAttendant || r == RoleManager || r == RoleAdmin
}

// Actor is the authenticated identity behind a controller call.
type Actor struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Role            Role
}
