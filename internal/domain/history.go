package domain

import "time"

// ActorType identifies who performed a lifecycle change.
type ActorType string

const (
	ActorCustomer   ActorType = "CUSTOMER"
	ActorTechnician ActorType = "TECHNICIAN"
	ActorAdmin      ActorType = "ADMIN"
	ActorSystem     ActorType = "SYSTEM"
)

// Actor attributes a history entry to an identity.
type Actor struct {
	Type ActorType
	ID   *string
}

// SystemActor is used for automatic transitions the engine performs itself.
func SystemActor() Actor {
	return Actor{Type: ActorSystem}
}

// StatusHistoryEntry is an immutable audit trail entry. Entries are only ever
// appended; past entries are never rewritten or reordered.
type StatusHistoryEntry struct {
	ID        string
	TicketID  string
	Status    RepairStatus
	Note      string
	ActorType ActorType
	ActorID   *string
	CreatedAt time.Time
}
