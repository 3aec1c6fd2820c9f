package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

// stubPerms is a role.PermissionChecker with canned answers.
type stubPerms struct {
	loading bool
	perms   map[string]bool
}

var _ role.PermissionChecker = (*stubPerms)(nil)

func (p *stubPerms) Loading() bool { return p.loading }

func (p *stubPerms) HasPermission(key string) bool {
	return !p.loading && p.perms[key]
}

func (p *stubPerms) HasAnyPermission(keys ...string) bool {
	for _, k := range keys {
		if p.HasPermission(k) {
			return true
		}
	}
	return false
}

func (p *stubPerms) HasAllPermissions(keys ...string) bool {
	for _, k := range keys {
		if !p.HasPermission(k) {
			return false
		}
	}
	return true
}

func testView(identity role.Identity, perms *stubPerms) View {
	if perms == nil {
		perms = &stubPerms{}
	}
	return View{
		Identity:          identity,
		Perms:             perms,
		Flags:             core.NewTestConfig(),
		SuperadminChecked: true,
		CommunityChecked:  true,
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestFilterRestrictedRolesIsDefinitiveAllowList(t *testing.T) {
	items := []Item{{
		ID:              "quiz-reviews",
		Label:           "Revisión de Quizzes",
		Href:            "/quiz-reviews",
		RestrictedRoles: []string{role.RoleAdmin, role.RoleConsultor},
		// the allow-list wins; this permission is never consulted
		Permissions: []string{role.PermManageSystemSettings},
	}}

	tests := []struct {
		name     string
		identity role.Identity
		visible  bool
	}{
		{"consultor sees it", role.Identity{Role: role.RoleConsultor}, true},
		{"docente does not", role.Identity{Role: role.RoleDocente}, false},
		{"admin matches the admin entry", role.Identity{IsAdmin: true, Role: role.RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(items, testView(tt.identity, &stubPerms{perms: map[string]bool{}}))
			if tt.visible {
				assert.Equal(t, []string{"quiz-reviews"}, ids(got))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterAdminAndConsultantGates(t *testing.T) {
	items := []Item{
		{ID: "users", Label: "Usuarios", Href: "/admin/user-management", AdminOnly: true},
		{ID: "consultants", Label: "Consultores", Href: "/admin/consultant-assignments", ConsultantOnly: true},
		{ID: "dashboard", Label: "Inicio", Href: "/dashboard"},
	}

	admin := Filter(items, testView(role.Identity{IsAdmin: true}, nil))
	assert.Equal(t, []string{"users", "consultants", "dashboard"}, ids(admin))

	consultor := Filter(items, testView(role.Identity{Role: role.RoleConsultor}, nil))
	assert.Equal(t, []string{"consultants", "dashboard"}, ids(consultor))

	docente := Filter(items, testView(role.Identity{Role: role.RoleDocente}, nil))
	assert.Equal(t, []string{"dashboard"}, ids(docente))
}

func TestFilterSuperadminOnlyNeedsFlagCheckAndStatus(t *testing.T) {
	items := []Item{{ID: "role-manager", Label: "Roles", Href: "/admin/role-management", SuperadminOnly: true}}

	tests := []struct {
		name    string
		view    func() View
		visible bool
	}{
		{
			"superadmin with flag and resolved check",
			func() View { return testView(role.Identity{IsAdmin: true, IsSuperadmin: true}, nil) },
			true,
		},
		{
			"check still pending",
			func() View {
				v := testView(role.Identity{IsAdmin: true, IsSuperadmin: true}, nil)
				v.SuperadminChecked = false
				return v
			},
			false,
		},
		{
			"flag disabled",
			func() View {
				v := testView(role.Identity{IsAdmin: true, IsSuperadmin: true}, nil)
				conf := core.NewTestConfig()
				conf.SetTestFlag(core.FlagSuperadminRBAC, false)
				v.Flags = conf
				return v
			},
			false,
		},
		{
			"plain admin",
			func() View { return testView(role.Identity{IsAdmin: true}, nil) },
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(items, tt.view())
			assert.Equal(t, tt.visible, len(got) == 1)
		})
	}
}

func TestFilterRequiresCommunity(t *testing.T) {
	items := []Item{{
		ID: "workspace", Label: "Comunidad", RequiresCommunity: true,
		Children: []Child{{ID: "ws-overview", Label: "Resumen", Href: "/community/workspace?section=overview"}},
	}}

	member := testView(role.Identity{Role: role.RoleDocente, HasCommunity: true}, nil)
	assert.Len(t, Filter(items, member), 1)

	consultor := testView(role.Identity{Role: role.RoleConsultor}, nil)
	assert.Len(t, Filter(items, consultor), 1, "consultors see community items without membership")

	outsider := testView(role.Identity{Role: role.RoleDocente}, nil)
	assert.Empty(t, Filter(items, outsider))

	pending := testView(role.Identity{Role: role.RoleDocente, HasCommunity: true}, nil)
	pending.CommunityChecked = false
	assert.Empty(t, Filter(items, pending), "hidden until the membership check resolves")
}

func TestFilterPermissionGate(t *testing.T) {
	items := []Item{{
		ID: "reports", Label: "Reportes", Href: "/reports",
		Permissions: []string{role.PermViewReports},
	}}

	granted := testView(role.Identity{Role: role.RoleEquipoDirectivo}, &stubPerms{perms: map[string]bool{role.PermViewReports: true}})
	assert.Len(t, Filter(items, granted), 1)

	denied := testView(role.Identity{Role: role.RoleDocente}, &stubPerms{perms: map[string]bool{}})
	assert.Empty(t, Filter(items, denied))

	loading := testView(role.Identity{Role: role.RoleEquipoDirectivo}, &stubPerms{loading: true})
	assert.Empty(t, Filter(items, loading), "fail closed while permissions load")

	admin := testView(role.Identity{IsAdmin: true}, &stubPerms{loading: true})
	assert.Len(t, Filter(items, admin), 1, "admins bypass the permission gate")

	consultor := testView(role.Identity{Role: role.RoleConsultor}, &stubPerms{perms: map[string]bool{}})
	assert.Len(t, Filter(items, consultor), 1, "consultants are permission-exempt on menu items")
}

func TestFilterRequireAllPermissions(t *testing.T) {
	items := []Item{{
		ID: "audit", Label: "Auditoría", Href: "/audit",
		Permissions:           []string{role.PermViewReports, role.PermViewAuditLogs},
		RequireAllPermissions: true,
	}}

	partial := testView(role.Identity{Role: role.RoleEquipoDirectivo}, &stubPerms{perms: map[string]bool{role.PermViewReports: true}})
	assert.Empty(t, Filter(items, partial))

	full := testView(role.Identity{Role: role.RoleEquipoDirectivo}, &stubPerms{perms: map[string]bool{
		role.PermViewReports:   true,
		role.PermViewAuditLogs: true,
	}})
	assert.Len(t, Filter(items, full), 1)
}

func TestFilterParentWithoutHrefDropsWhenChildless(t *testing.T) {
	items := []Item{{
		ID: "management", Label: "Gestión", AdminOnly: false,
		Children: []Child{
			{ID: "contracts", Label: "Contratos", Href: "/contracts", AdminOnly: true},
			{ID: "expenses", Label: "Rendiciones", Href: "/expense-reports", AdminOnly: true},
		},
	}}

	docente := Filter(items, testView(role.Identity{Role: role.RoleDocente}, nil))
	assert.Empty(t, docente, "parent without href disappears when all children filter out")

	admin := Filter(items, testView(role.Identity{IsAdmin: true}, nil))
	assert.Len(t, admin, 1)
	assert.Len(t, admin[0].Children, 2)
}

func TestFilterChildGatesIndependent(t *testing.T) {
	items := []Item{{
		ID: "courses", Label: "Cursos", Href: "/courses",
		Children: []Child{
			{ID: "builder", Label: "Crear", Href: "/admin/course-builder", Permissions: []string{role.PermCreateCourses}},
			{ID: "manager", Label: "Gestionar", Href: "/course-manager", Permissions: []string{role.PermEditCourses}},
		},
	}}

	v := testView(role.Identity{Role: role.RoleEquipoDirectivo}, &stubPerms{perms: map[string]bool{role.PermEditCourses: true}})
	got := Filter(items, v)
	assert.Len(t, got, 1)
	assert.Len(t, got[0].Children, 1)
	assert.Equal(t, "manager", got[0].Children[0].ID)
}

func TestExpandedForReplacesPriorState(t *testing.T) {
	menu := DefaultMenu()

	expanded := ExpandedFor(menu, "/mi-aprendizaje/cursos")
	assert.Equal(t, ExpandedState{"learning": true}, expanded)

	// user manually opens another branch, then navigates
	expanded.Toggle("reports")
	assert.True(t, expanded["reports"])

	expanded = ExpandedFor(menu, "/detailed-reports")
	assert.Equal(t, ExpandedState{"reports": true}, expanded, "route change replaces manual expansions")

	expanded = ExpandedFor(menu, "/dashboard")
	assert.Empty(t, expanded)
}

func TestValidateItems(t *testing.T) {
	assert.NoError(t, ValidateItems(DefaultMenu()))

	assert.Error(t, ValidateItems([]Item{{ID: "x", Label: "X"}}), "neither href nor children")
	assert.Error(t, ValidateItems([]Item{
		{ID: "a", Label: "A", Href: "/a"},
		{ID: "a", Label: "A again", Href: "/a2"},
	}), "duplicate ids")
	assert.Error(t, ValidateItems([]Item{{
		ID: "a", Label: "A",
		Children: []Child{{ID: "c", Label: "C"}},
	}}), "child without href")
}
