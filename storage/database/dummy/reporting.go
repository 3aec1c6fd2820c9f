package dummydb

import (
	"context"

	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/user"
)

// reportingRepository derives profiles from the user table and serves the
// seeded enrollment and organizational data.
type reportingRepository struct {
	users      *userTable
	org        *orgTable
	enrollment *enrollmentTable
}

var _ reporting.Repository = (*reportingRepository)(nil) // interface compliance check

func NewReportingRepository(db *DB) reporting.Repository {
	return &reportingRepository{users: db.user, org: db.org, enrollment: db.enrollment}
}

func toProfile(usr user.User) reporting.Profile {
	return reporting.Profile{
		UserID:       usr.ID,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		SchoolID:     usr.SchoolID,
		GenerationID: usr.GenerationID,
		CommunityID:  usr.CommunityID,
	}
}

func (repo *reportingRepository) GetProfile(ctx context.Context, userID string) (*reporting.Profile, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[userID]; ok {
		p := toProfile(*usr)
		return &p, nil
	}
	return nil, reporting.ErrNotFound
}

func (repo *reportingRepository) GetProfiles(ctx context.Context, userIDs []string) ([]reporting.Profile, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	var out []reporting.Profile
	if userIDs == nil {
		for _, usr := range repo.users.table {
			if usr.IsActive {
				out = append(out, toProfile(*usr))
			}
		}
		return out, nil
	}
	for _, id := range userIDs {
		if usr, ok := repo.users.table[id]; ok && usr.IsActive {
			out = append(out, toProfile(*usr))
		}
	}
	return out, nil
}

func (repo *reportingRepository) GetProfileIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	var out []string
	for id, usr := range repo.users.table {
		if usr.SchoolID.Valid && usr.SchoolID.String == schoolID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (repo *reportingRepository) GetProfileIDsBySchoolAndGeneration(ctx context.Context, schoolID, generationID string) ([]string, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	var out []string
	for id, usr := range repo.users.table {
		if usr.SchoolID.Valid && usr.SchoolID.String == schoolID &&
			usr.GenerationID.Valid && usr.GenerationID.String == generationID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (repo *reportingRepository) GetProfileIDsByCommunity(ctx context.Context, communityID string) ([]string, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	var out []string
	for id, usr := range repo.users.table {
		if usr.CommunityID.Valid && usr.CommunityID.String == communityID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (repo *reportingRepository) GetAssignedStudentIDs(ctx context.Context, consultantID string) ([]string, error) {
	repo.org.RLock()
	defer repo.org.RUnlock()

	ids := repo.org.consultants[consultantID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (repo *reportingRepository) GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error) {
	repo.org.RLock()
	defer repo.org.RUnlock()
	return lookupNames(repo.org.schools, ids), nil
}

func (repo *reportingRepository) GetGenerationNames(ctx context.Context, ids []string) (map[string]string, error) {
	repo.org.RLock()
	defer repo.org.RUnlock()
	return lookupNames(repo.org.generations, ids), nil
}

func (repo *reportingRepository) GetCommunityNames(ctx context.Context, ids []string) (map[string]string, error) {
	repo.org.RLock()
	defer repo.org.RUnlock()
	return lookupNames(repo.org.communities, ids), nil
}

func lookupNames(table map[string]string, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := table[id]; ok {
			out[id] = name
		}
	}
	return out
}

func (repo *reportingRepository) GetEnrollments(ctx context.Context, userIDs []string) ([]reporting.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []reporting.Enrollment
	for _, e := range repo.enrollment.enrollments {
		if wanted[e.UserID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (repo *reportingRepository) GetPathSummaries(ctx context.Context, userIDs []string) ([]reporting.PathSummary, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []reporting.PathSummary
	for _, ps := range repo.enrollment.summaries {
		if wanted[ps.UserID] {
			out = append(out, ps)
		}
	}
	return out, nil
}
