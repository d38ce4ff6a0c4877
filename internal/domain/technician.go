package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleTechnician StaffRole = "TECHNICIAN"
	StaffRoleAdmin      StaffRole = "ADMIN"
)

// Technician models a repair technician or administrator.
type Technician struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActorType maps the staff role onto the audit actor taxonomy.
func (t *Technician) ActorType() ActorType {
	if t.Role == StaffRoleAdmin {
		return ActorAdmin
	}
	return ActorTechnician
}

// Actor builds the audit actor for this staff member.
func (t *Technician) Actor() Actor {
	id := t.ID
	return Actor{Type: t.ActorType(), ID: &id}
}
