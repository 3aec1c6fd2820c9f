package role

import (
	"context"
	"errors"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("role assignment not found")
)

// Role types matching the user_roles table - Spanish names for consistency.
const (
	RoleAdmin            = "admin"             // staff with full platform control
	RoleConsultor        = "consultor"         // consultants assigned to specific schools
	RoleEquipoDirectivo  = "equipo_directivo"  // school-level administrators
	RoleLiderGeneracion  = "lider_generacion"  // generation leaders
	RoleLiderComunidad   = "lider_comunidad"   // growth community leaders
	RoleSupervisorDeRed  = "supervisor_de_red" // network supervisors, reporting only
	RoleCommunityManager = "community_manager"
	RoleDocente          = "docente" // regular teachers / course participants
)

var (
	AllRoles = []string{
		RoleAdmin,
		RoleConsultor,
		RoleEquipoDirectivo,
		RoleLiderGeneracion,
		RoleLiderComunidad,
		RoleSupervisorDeRed,
		RoleCommunityManager,
		RoleDocente,
	}

	// RoleNames maps role types to display names.
	RoleNames = map[string]string{
		RoleAdmin:            "Administrador Global",
		RoleConsultor:        "Consultor",
		RoleEquipoDirectivo:  "Equipo Directivo",
		RoleLiderGeneracion:  "Líder de Generación",
		RoleLiderComunidad:   "Líder de Comunidad",
		RoleSupervisorDeRed:  "Supervisor de Red",
		RoleCommunityManager: "Community Manager",
		RoleDocente:          "Docente",
	}
)

func IsValidRole(roleType string) bool {
	for _, r := range AllRoles {
		if r == roleType {
			return true
		}
	}
	return false
}

// Well-known permission keys. The role_permissions table is the source of truth;
// these constants only name the keys the navigation menu and API routes gate on.
const (
	PermViewDashboard        = "view_dashboard"
	PermViewReports          = "view_reports"
	PermCreateCourses        = "create_courses"
	PermEditCourses          = "edit_courses"
	PermManageUsers          = "manage_users"
	PermManageContracts      = "manage_contracts"
	PermManageExpenseReports = "manage_expense_reports"
	PermManagePermissions    = "manage_permissions"
	PermManageSystemSettings = "manage_system_settings"
	PermViewAuditLogs        = "view_audit_logs"
)

type (
	// Assignment is a user_roles row: one active role held by a user,
	// optionally scoped to an organizational unit.
	Assignment struct {
		ID           string      `json:"id"`
		UserID       string      `json:"user_id"`
		RoleType     string      `json:"role_type"`
		SchoolID     null.String `json:"school_id,omitempty"`
		GenerationID null.String `json:"generation_id,omitempty"`
		CommunityID  null.String `json:"community_id,omitempty"`
		IsActive     bool        `json:"is_active"`
	}

	// Rule is a role_permissions row. Only rows with Active true and IsTest
	// false are authoritative; repositories must not return others.
	Rule struct {
		RoleType      string `json:"role_type"`
		PermissionKey string `json:"permission_key"`
		Granted       bool   `json:"granted"`
		IsTest        bool   `json:"is_test"`
		Active        bool   `json:"active"`
	}

	// Identity is the per-session snapshot of who the user is.
	// Immutable per session; recomputed on user change.
	Identity struct {
		UserID       string `json:"user_id"`
		IsAdmin      bool   `json:"is_admin"`
		IsSuperadmin bool   `json:"is_superadmin"`
		Role         string `json:"role"`
		HasCommunity bool   `json:"has_community"`
	}

	// PermissionMap maps permission keys to granted. A key is true if ANY
	// active role grants it, false if declared but never granted, absent if
	// never declared for the user's roles.
	PermissionMap map[string]bool

	Repository interface {
		// GetActiveAssignments returns the user's active role assignments only.
		GetActiveAssignments(ctx context.Context, userID string) ([]Assignment, error)
		// GetRules returns the authoritative permission rows for the given role
		// types: active, non-test rows only.
		GetRules(ctx context.Context, roleTypes []string) ([]Rule, error)
		// IsSuperadmin reports whether the user is listed in the superadmins table.
		IsSuperadmin(ctx context.Context, userID string) (bool, error)
	}

	// AdminRepository extends Repository with the mutations the role manager
	// and admin tooling need.
	AdminRepository interface {
		Repository
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		SetAssignmentActive(ctx context.Context, id string, active bool) error
		// UpsertRule creates or replaces the rule for (role_type, permission_key).
		UpsertRule(ctx context.Context, r Rule) error
		// QueryAllRules returns every rule row, including inactive and
		// test-only ones, for the role manager UI.
		QueryAllRules(ctx context.Context) ([]Rule, error)
	}
)
