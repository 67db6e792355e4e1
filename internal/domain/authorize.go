package domain

// Authorize checks that role is one of allowed. Services call it first thing in every
// operation; an unknown or empty role means there is no authenticated identity.
func Authorize(role Role, allowed ...Role) error {
	if !role.Valid() {
		return ErrUnauthenticated
	}
	for _, r := range allowed {
		if role == r {
			return nil
		}
	}
	return ErrForbidden
}

// AnyRole lists every role; use it for operations open to all authenticated actors.
var AnyRole = []Role{RoleStudent, RoleTeacher, RoleAdmin}
