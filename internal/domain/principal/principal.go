package principal

import "teacha/internal/common"

type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInstitution Role = "institution"
)

// Principal is the authenticated identity attached to every request. The
// engine trusts the id supplied by the identity provider without
// re-verification.
type Principal struct {
	ID    common.UUID `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  Role        `json:"role"`
}
