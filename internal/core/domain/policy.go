package domain

// RequireRole admits p when its role is in allowed.
func RequireRole(p *Principal, allowed RoleSet) error {
	if p == nil {
		return ErrNotAuthorized
	}
	if !allowed.Contains(p.Role) {
		return Forbidden("Access denied: insufficient permissions")
	}
	return nil
}

// RequireOwnership admits p when it created the resource or is an admin.
// Resources whose creator was deleted can therefore only be changed by admins.
func RequireOwnership(p *Principal, ownerID string) error {
	if p == nil {
		return ErrNotAuthorized
	}
	if p.IsAdmin() || (ownerID != "" && p.ID == ownerID) {
		return nil
	}
	return Forbidden("Not authorized to modify this location")
}
