package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/fnedigital/genera/core/role"
)

type roleRepository struct {
	db *roleTable
}

var _ role.AdminRepository = (*roleRepository)(nil) // interface compliance check

func NewRoleRepository(db *DB) role.AdminRepository {
	return &roleRepository{db: db.role}
}

func (repo *roleRepository) GetActiveAssignments(ctx context.Context, userID string) ([]role.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []role.Assignment
	for _, a := range repo.db.assignments {
		if a.UserID == userID && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (repo *roleRepository) GetRules(ctx context.Context, roleTypes []string) ([]role.Rule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []role.Rule
	for _, r := range repo.db.rules {
		if !r.Active || r.IsTest {
			continue
		}
		for _, rt := range roleTypes {
			if r.RoleType == rt {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (repo *roleRepository) IsSuperadmin(ctx context.Context, userID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.superadmins[userID], nil
}

func (repo *roleRepository) CreateAssignment(ctx context.Context, a role.Assignment) (role.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *roleRepository) SetAssignmentActive(ctx context.Context, id string, active bool) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.assignments[id]
	if !ok {
		return role.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (repo *roleRepository) UpsertRule(ctx context.Context, r role.Rule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, existing := range repo.db.rules {
		if existing.RoleType == r.RoleType && existing.PermissionKey == r.PermissionKey {
			repo.db.rules[i] = r
			return nil
		}
	}
	repo.db.rules = append(repo.db.rules, r)
	return nil
}

func (repo *roleRepository) QueryAllRules(ctx context.Context) ([]role.Rule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	out := make([]role.Rule, len(repo.db.rules))
	copy(out, repo.db.rules)
	return out, nil
}
