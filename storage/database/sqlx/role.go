package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core/role"
)

type assignmentRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	RoleType     string      `db:"role_type"`
	SchoolID     null.String `db:"school_id"`
	GenerationID null.String `db:"generation_id"`
	CommunityID  null.String `db:"community_id"`
	IsActive     bool        `db:"is_active"`
}

func (r assignmentRow) toAssignment() role.Assignment {
	return role.Assignment{
		ID:           r.ID,
		UserID:       r.UserID,
		RoleType:     r.RoleType,
		SchoolID:     r.SchoolID,
		GenerationID: r.GenerationID,
		CommunityID:  r.CommunityID,
		IsActive:     r.IsActive,
	}
}

type ruleRow struct {
	RoleType      string `db:"role_type"`
	PermissionKey string `db:"permission_key"`
	Granted       bool   `db:"granted"`
	IsTest        bool   `db:"is_test"`
	Active        bool   `db:"active"`
}

func (r ruleRow) toRule() role.Rule {
	return role.Rule(r)
}

type roleRepository struct {
	db *sqlx.DB
}

var _ role.AdminRepository = (*roleRepository)(nil) // interface compliance check

func NewRoleRepository(db *sqlx.DB) role.AdminRepository {
	return &roleRepository{db: db}
}

func (repo *roleRepository) GetActiveAssignments(ctx context.Context, userID string) ([]role.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, role_type, school_id, generation_id, community_id, is_active
		FROM user_roles
		WHERE user_id = $1 AND is_active = TRUE`,
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying role assignments")
	}
	out := make([]role.Assignment, len(rows))
	for i, row := range rows {
		out[i] = row.toAssignment()
	}
	return out, nil
}

func (repo *roleRepository) GetRules(ctx context.Context, roleTypes []string) ([]role.Rule, error) {
	if len(roleTypes) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT role_type, permission_key, granted, is_test, active
		FROM role_permissions
		WHERE role_type IN (?) AND active = TRUE AND is_test = FALSE`,
		roleTypes)
	if err != nil {
		return nil, errors.Wrap(err, "building rules query")
	}

	var rows []ruleRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying permission rules")
	}
	out := make([]role.Rule, len(rows))
	for i, row := range rows {
		out[i] = row.toRule()
	}
	return out, nil
}

func (repo *roleRepository) IsSuperadmin(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT TRUE FROM superadmins WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "querying superadmins")
	}
	return exists, nil
}

func (repo *roleRepository) CreateAssignment(ctx context.Context, a role.Assignment) (role.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	row := assignmentRow{
		ID:           a.ID,
		UserID:       a.UserID,
		RoleType:     a.RoleType,
		SchoolID:     a.SchoolID,
		GenerationID: a.GenerationID,
		CommunityID:  a.CommunityID,
		IsActive:     a.IsActive,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO user_roles (id, user_id, role_type, school_id, generation_id, community_id, is_active)
		VALUES (:id, :user_id, :role_type, :school_id, :generation_id, :community_id, :is_active)`,
		row)
	if err != nil {
		return role.Assignment{}, errors.Wrap(err, "creating role assignment")
	}
	return a, nil
}

func (repo *roleRepository) SetAssignmentActive(ctx context.Context, id string, active bool) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE user_roles SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return errors.Wrap(err, "updating role assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return role.ErrNotFound
	}
	return nil
}

func (repo *roleRepository) UpsertRule(ctx context.Context, r role.Rule) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO role_permissions (role_type, permission_key, granted, is_test, active)
		VALUES (:role_type, :permission_key, :granted, :is_test, :active)
		ON CONFLICT (role_type, permission_key)
		DO UPDATE SET granted = EXCLUDED.granted, is_test = EXCLUDED.is_test, active = EXCLUDED.active`,
		ruleRow(r))
	return errors.Wrap(err, "upserting permission rule")
}

func (repo *roleRepository) QueryAllRules(ctx context.Context) ([]role.Rule, error) {
	var rows []ruleRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT role_type, permission_key, granted, is_test, active
		FROM role_permissions
		ORDER BY role_type, permission_key`)
	if err != nil {
		return nil, errors.Wrap(err, "querying permission rules")
	}
	out := make([]role.Rule, len(rows))
	for i, row := range rows {
		out[i] = row.toRule()
	}
	return out, nil
}
