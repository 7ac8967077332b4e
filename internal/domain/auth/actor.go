package auth

import "fmt"

// Actor is the caller of a domain operation. It is passed explicitly into
// every operation that needs an authorization decision.
type Actor struct {
	UserID      string       `json:"userId"`
	Name        string       `json:"name,omitempty"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

func NewActor(userID, name string, role Role, granted []Permission) Actor {
	return Actor{
		UserID:      userID,
		Name:        name,
		Role:        role,
		Permissions: EffectivePermissions(role, granted),
	}
}

// SystemActor runs scheduled work.
func SystemActor() Actor {
	return NewActor("system", "system", RoleAdmin, nil)
}

func (a Actor) Can(perm Permission) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Require returns an error wrapping ErrForbidden when the actor lacks perm.
func (a Actor) Require(perm Permission) error {
	if a.Can(perm) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrForbidden, a.Role, perm)
}

func (a Actor) RequireAdmin() error {
	if a.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: admin role required", ErrForbidden)
}
