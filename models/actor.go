package models

// Role of the caller invoking a core operation.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
)

// Actor is the explicit identity passed into every core operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanActFor reports whether the actor may operate on the given client's behalf.
func (a Actor) CanActFor(clientID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == clientID)
}
