package role

// Resolved is a PermissionChecker over an already-built map. Request-scoped
// checks (API middleware, report handlers) use it where no session Store
// exists: a nil map means resolution failed and all checks fail closed.
type Resolved struct {
	Perms PermissionMap
}

var _ PermissionChecker = Resolved{}

func (r Resolved) Loading() bool { return r.Perms == nil }

func (r Resolved) HasPermission(key string) bool {
	if r.Perms == nil {
		return false
	}
	return r.Perms[key]
}

func (r Resolved) HasAnyPermission(keys ...string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, key := range keys {
		if r.HasPermission(key) {
			return true
		}
	}
	return false
}

func (r Resolved) HasAllPermissions(keys ...string) bool {
	if r.Perms == nil {
		return false
	}
	for _, key := range keys {
		if !r.Perms[key] {
			return false
		}
	}
	return true
}
