package navigation

import (
	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

// verdict is the outcome of one gate in the cascade.
type verdict int

const (
	verdictNext verdict = iota // gate passed (or not applicable), keep evaluating
	verdictShow                // gate passed and is definitive, skip remaining gates
	verdictHide                // gate failed, item is hidden
)

type itemGate func(Item, View) verdict

// itemGates is evaluated in order; the first gate returning verdictHide hides
// the item and later gates are never consulted.
var itemGates = []itemGate{
	gateSuperadminOnly,
	gateAdminOnly,
	gateConsultantOnly,
	gateRequiresCommunity,
	gateRestrictedRoles,
	gatePermission,
}

func gateSuperadminOnly(item Item, v View) verdict {
	if !item.SuperadminOnly {
		return verdictNext
	}
	if v.Flags.FlagEnabled(core.FlagSuperadminRBAC) && v.SuperadminChecked && v.Identity.IsSuperadmin {
		return verdictNext
	}
	return verdictHide
}

func gateAdminOnly(item Item, v View) verdict {
	if !item.AdminOnly || v.Identity.IsAdmin {
		return verdictNext
	}
	return verdictHide
}

func gateConsultantOnly(item Item, v View) verdict {
	if !item.ConsultantOnly {
		return verdictNext
	}
	if v.Identity.IsAdmin || v.Identity.Role == role.RoleAdmin || v.Identity.Role == role.RoleConsultor {
		return verdictNext
	}
	return verdictHide
}

func gateRequiresCommunity(item Item, v View) verdict {
	if !item.RequiresCommunity {
		return verdictNext
	}
	// fails closed until the membership lookup completes
	if v.CommunityChecked && (v.Identity.HasCommunity || v.Identity.Role == role.RoleConsultor) {
		return verdictNext
	}
	return verdictHide
}

// gateRestrictedRoles treats the list as the definitive allow-list: on a pass
// the permission gate is skipped entirely.
func gateRestrictedRoles(item Item, v View) verdict {
	if len(item.RestrictedRoles) == 0 {
		return verdictNext
	}
	for _, r := range item.RestrictedRoles {
		if r == v.Identity.Role || (v.Identity.IsAdmin && r == role.RoleAdmin) {
			return verdictShow
		}
	}
	return verdictHide
}

func gatePermission(item Item, v View) verdict {
	if len(item.Permissions) == 0 {
		return verdictNext
	}
	// admins and consultants are exempt from permission gates on menu items
	if v.Identity.IsAdmin || v.Identity.Role == role.RoleConsultor {
		return verdictNext
	}
	if v.Perms.Loading() {
		return verdictHide
	}
	if passesPermissionCheck(v.Perms, item.Permissions, item.RequireAllPermissions) {
		return verdictNext
	}
	return verdictHide
}

func passesPermissionCheck(perms role.PermissionChecker, keys []string, requireAll bool) bool {
	if requireAll {
		return perms.HasAllPermissions(keys...)
	}
	return perms.HasAnyPermission(keys...)
}

func itemVisible(item Item, v View) bool {
	for _, gate := range itemGates {
		switch gate(item, v) {
		case verdictHide:
			return false
		case verdictShow:
			return true
		}
	}
	return true
}

// childVisible applies the child gates independently of the parent's outcome.
func childVisible(child Child, v View) bool {
	if child.AdminOnly && !v.Identity.IsAdmin {
		return false
	}
	if len(child.Permissions) > 0 && !v.Identity.IsAdmin {
		if v.Perms.Loading() {
			return false
		}
		return passesPermissionCheck(v.Perms, child.Permissions, child.RequireAllPermissions)
	}
	return true
}

// Filter returns the subset of items the viewer may see, in declaration
// order, with each surviving item carrying only its surviving children.
// A parent without a direct href is dropped when all its children filter out.
func Filter(items []Item, v View) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !itemVisible(item, v) {
			continue
		}
		if len(item.Children) > 0 {
			kept := make([]Child, 0, len(item.Children))
			for _, child := range item.Children {
				if childVisible(child, v) {
					kept = append(kept, child)
				}
			}
			if len(kept) == 0 && item.Href == "" {
				continue
			}
			item.Children = kept
		}
		out = append(out, item)
	}
	return out
}

// ExpandedState is the set of top-level item ids currently expanded.
type ExpandedState map[string]bool

// ExpandedFor recomputes the expansion set for a route change: exactly the
// items with a child matching the current path. The result replaces any
// previous state, it is never merged into it.
func ExpandedFor(items []Item, currentPath string) ExpandedState {
	expanded := make(ExpandedState)
	for _, item := range items {
		for _, child := range item.Children {
			if MatchesRoute(child.Href, currentPath) {
				expanded[item.ID] = true
				break
			}
		}
	}
	return expanded
}

// Toggle flips one item's expansion in place, for explicit user toggles
// between route changes.
func (s ExpandedState) Toggle(id string) {
	if s[id] {
		delete(s, id)
	} else {
		s[id] = true
	}
}
