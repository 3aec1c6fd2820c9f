package role

import "sync"

// Decision is the computed gate state of a Guard. Authorization denial is not
// an error: it is a first-class state with defined UI.
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionGranted
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	default:
		return "loading"
	}
}

// GuardConfig parameterizes a Guard.
type GuardConfig struct {
	// Keys are the required permission keys.
	Keys []string
	// RequireAll switches the check from any-of to all-of.
	RequireAll bool
	// RedirectTo, when non-empty, is the navigation target on denial.
	RedirectTo string
	// OnDenied, when set, is invoked exactly once per denied streak.
	OnDenied func()
}

// Guard gates a protected subtree on one or more permission keys.
//
// While the permission store is loading it reports DecisionLoading: neither
// the protected content nor the denial view should render. Once resolved it
// reports Granted or Denied; on denial the OnDenied side effect fires once
// and the redirect target is yielded once, so a re-evaluation of the same
// denied state never retriggers either.
type Guard struct {
	checker PermissionChecker
	conf    GuardConfig

	mu             sync.Mutex
	last           Decision
	deniedNotified bool
	redirectIssued bool
}

func NewGuard(checker PermissionChecker, conf GuardConfig) *Guard {
	return &Guard{checker: checker, conf: conf, last: DecisionLoading}
}

// Evaluate recomputes the gate state. Call it whenever loading state or the
// underlying permission map may have changed.
func (g *Guard) Evaluate() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checker.Loading() {
		g.last = DecisionLoading
		g.deniedNotified = false
		g.redirectIssued = false
		return g.last
	}

	var hasAccess bool
	if g.conf.RequireAll {
		hasAccess = g.checker.HasAllPermissions(g.conf.Keys...)
	} else {
		hasAccess = g.checker.HasAnyPermission(g.conf.Keys...)
	}

	if hasAccess {
		g.last = DecisionGranted
		g.deniedNotified = false
		g.redirectIssued = false
		return g.last
	}

	g.last = DecisionDenied
	if !g.deniedNotified {
		g.deniedNotified = true
		if g.conf.OnDenied != nil {
			g.conf.OnDenied()
		}
	}
	return g.last
}

// RedirectTarget returns the configured redirect target the first time it is
// called for a denied streak. Callers must Evaluate first.
func (g *Guard) RedirectTarget() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last != DecisionDenied || g.conf.RedirectTo == "" || g.redirectIssued {
		return "", false
	}
	g.redirectIssued = true
	return g.conf.RedirectTo, true
}
