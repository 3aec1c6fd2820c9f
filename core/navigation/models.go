package navigation

import (
	"fmt"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

type (
	// Item is a top-level entry of the static menu tree (depth ≤ 2).
	// Optional gate fields are evaluated in the fixed order of filter.go.
	Item struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Icon  string `json:"icon"`
		Href  string `json:"href,omitempty"`

		Children []Child `json:"children,omitempty"`

		AdminOnly      bool `json:"admin_only,omitempty"`
		ConsultantOnly bool `json:"consultant_only,omitempty"`
		SuperadminOnly bool `json:"superadmin_only,omitempty"`
		// RestrictedRoles, when non-empty, is the definitive allow-list for the
		// item; no permission check is layered on top.
		RestrictedRoles []string `json:"restricted_roles,omitempty"`

		Permissions           []string `json:"permissions,omitempty"`
		RequireAllPermissions bool     `json:"require_all_permissions,omitempty"`
		RequiresCommunity     bool     `json:"requires_community,omitempty"`
	}

	// Child entries apply their own gates independently of the parent's outcome.
	Child struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Icon  string `json:"icon,omitempty"`
		Href  string `json:"href"`

		AdminOnly             bool     `json:"admin_only,omitempty"`
		Permissions           []string `json:"permissions,omitempty"`
		RequireAllPermissions bool     `json:"require_all_permissions,omitempty"`
	}

	// FlagChecker resolves feature flags; *core.Config satisfies it.
	FlagChecker interface {
		FlagEnabled(core.Flag) bool
	}

	// View is everything the filter needs to know about the requesting user.
	// The *Checked flags model asynchronous lookups that may not have resolved
	// yet: gates depending on them fail closed until the check completes.
	View struct {
		Identity role.Identity
		Perms    role.PermissionChecker
		Flags    FlagChecker

		SuperadminChecked bool
		CommunityChecked  bool
	}
)

// ValidateItems sanity-checks the static menu once at startup so render-time
// code can trust it.
func ValidateItems(items []Item) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID == "" || item.Label == "" {
			return fmt.Errorf("navigation: item %q must have id and label", item.ID)
		}
		if seen[item.ID] {
			return fmt.Errorf("navigation: duplicate item id %q", item.ID)
		}
		seen[item.ID] = true
		if item.Href == "" && len(item.Children) == 0 {
			return fmt.Errorf("navigation: item %q has neither href nor children", item.ID)
		}
		for _, child := range item.Children {
			if child.ID == "" || child.Label == "" || child.Href == "" {
				return fmt.Errorf("navigation: child %q of %q must have id, label and href", child.ID, item.ID)
			}
			if seen[child.ID] {
				return fmt.Errorf("navigation: duplicate item id %q", child.ID)
			}
			seen[child.ID] = true
		}
	}
	return nil
}
