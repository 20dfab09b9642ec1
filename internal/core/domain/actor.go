package domain

// Actor is the verified identity attached to a request: a stable id plus a
// role. It is produced by the auth middleware from the bearer token.
type Actor struct {
	ID   string
	Role UserRole
}

// IsParent reports whether the actor holds the parent role.
func (a Actor) IsParent() bool { return a.Role == RoleParent }

// CanActFor reports whether the actor may read child-scoped resources for
// the given account: the child itself, or any parent (ownership is verified
// against the account record by the service).
func (a Actor) CanActFor(accountID string) bool {
	return a.IsParent() || a.ID == accountID
}
