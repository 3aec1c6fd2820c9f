package navigation

import "github.com/fnedigital/genera/core/role"

// DefaultMenu returns the platform's sidebar tree. Declared once and
// validated at startup; Filter computes the per-user visible subset.
func DefaultMenu() []Item {
	return []Item{
		{
			ID:    "dashboard",
			Label: "Inicio",
			Icon:  "home",
			Href:  "/dashboard",
		},
		{
			ID:    "profile",
			Label: "Mi Perfil",
			Icon:  "user",
			Href:  "/profile",
		},
		{
			ID:    "learning",
			Label: "Mi Aprendizaje",
			Icon:  "book-open",
			Children: []Child{
				{ID: "my-courses", Label: "Mis Cursos", Href: "/mi-aprendizaje/cursos"},
				{ID: "my-tasks", Label: "Mis Tareas", Href: "/mi-aprendizaje/tareas"},
			},
		},
		{
			ID:    "courses",
			Label: "Cursos",
			Icon:  "graduation-cap",
			Children: []Child{
				{
					ID:          "course-builder",
					Label:       "Crear Curso",
					Href:        "/admin/course-builder",
					Permissions: []string{role.PermCreateCourses},
				},
				{
					ID:          "course-manager",
					Label:       "Gestionar Cursos",
					Href:        "/course-manager",
					Permissions: []string{role.PermEditCourses},
				},
			},
		},
		{
			ID:        "users",
			Label:     "Usuarios",
			Icon:      "users",
			Href:      "/admin/user-management",
			AdminOnly: true,
		},
		{
			ID:             "consultants",
			Label:          "Consultores",
			Icon:           "briefcase",
			Href:           "/admin/consultant-assignments",
			ConsultantOnly: true,
		},
		{
			ID:        "management",
			Label:     "Gestión",
			Icon:      "clipboard",
			AdminOnly: true,
			Children: []Child{
				{ID: "contracts", Label: "Contratos", Href: "/contracts", Permissions: []string{role.PermManageContracts}},
				{ID: "expense-reports", Label: "Rendiciones", Href: "/expense-reports", Permissions: []string{role.PermManageExpenseReports}},
			},
		},
		{
			ID:          "reports",
			Label:       "Reportes",
			Icon:        "bar-chart",
			Permissions: []string{role.PermViewReports},
			Children: []Child{
				{ID: "detailed-reports", Label: "Reportes Detallados", Href: "/detailed-reports"},
				{ID: "enhanced-reports", Label: "Reportes Avanzados", Href: "/enhanced-reports"},
			},
		},
		{
			ID:              "quiz-reviews",
			Label:           "Revisión de Quizzes",
			Icon:            "check-square",
			Href:            "/quiz-reviews",
			RestrictedRoles: []string{role.RoleAdmin, role.RoleConsultor},
		},
		{
			ID:                "workspace",
			Label:             "Comunidad de Crecimiento",
			Icon:              "globe",
			RequiresCommunity: true,
			Children: []Child{
				{ID: "workspace-overview", Label: "Resumen", Href: "/community/workspace?section=overview"},
				{ID: "workspace-sessions", Label: "Sesiones", Href: "/community/workspace?section=sessions"},
				{ID: "workspace-communities", Label: "Comunidades", Href: "/community/workspace?section=communities", AdminOnly: true},
			},
		},
		{
			ID:             "role-manager",
			Label:          "Roles y Permisos",
			Icon:           "shield",
			Href:           "/admin/role-management",
			SuperadminOnly: true,
		},
		{
			ID:        "settings",
			Label:     "Configuración",
			Icon:      "settings",
			Href:      "/admin/settings",
			AdminOnly: true,
		},
	}
}
