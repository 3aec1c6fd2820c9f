package navigation

import (
	"net/url"
	"strings"
)

// workspacePath hosts several sections behind one route, distinguished only
// by the "section" query parameter.
const workspacePath = "/community/workspace"

// MatchesRoute reports whether a menu href is active for the current path.
// Matching is attempted in order: exact equality, workspace section equality,
// equal base paths, then nested paths. Hrefs carrying query parameters only
// ever match exactly (or by workspace section) and never via nesting.
func MatchesRoute(href, current string) bool {
	if href == "" {
		return false
	}
	if href == current {
		return true
	}

	hu, err := url.Parse(href)
	if err != nil {
		return false
	}
	cu, err := url.Parse(current)
	if err != nil {
		return false
	}

	if hu.Path == workspacePath && cu.Path == workspacePath {
		return hu.Query().Get("section") == cu.Query().Get("section")
	}

	if hu.Path == cu.Path {
		// an href with its own query string requires full equality,
		// which already failed above
		return hu.RawQuery == ""
	}

	if hu.RawQuery == "" && strings.HasPrefix(cu.Path, hu.Path+"/") {
		return true
	}
	return false
}
