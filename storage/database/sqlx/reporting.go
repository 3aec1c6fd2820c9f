package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core/reporting"
)

// Profiles are a projection of the users table; the reporting layer never
// sees password hashes or audit columns.
const profileColumns = `id AS user_id, first_name, last_name, email, role, is_active,
	school_id, generation_id, community_id`

type reportingRepository struct {
	db *sqlx.DB
}

var _ reporting.Repository = (*reportingRepository)(nil) // interface compliance check

func NewReportingRepository(db *sqlx.DB) reporting.Repository {
	return &reportingRepository{db: db}
}

func (repo *reportingRepository) GetProfile(ctx context.Context, userID string) (*reporting.Profile, error) {
	var p reporting.Profile
	err := repo.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, reporting.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying profile")
	}
	return &p, nil
}

func (repo *reportingRepository) GetProfiles(ctx context.Context, userIDs []string) ([]reporting.Profile, error) {
	if userIDs == nil {
		var out []reporting.Profile
		err := repo.db.SelectContext(ctx, &out, `SELECT `+profileColumns+` FROM users WHERE is_active = TRUE`)
		return out, errors.Wrap(err, "querying profiles")
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM users WHERE is_active = TRUE AND id IN (?)`, userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building profiles query")
	}
	var out []reporting.Profile
	err = repo.db.SelectContext(ctx, &out, repo.db.Rebind(query), args...)
	return out, errors.Wrap(err, "querying profiles")
}

func (repo *reportingRepository) GetProfileIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE school_id = $1`, schoolID)
	return ids, errors.Wrap(err, "querying school profiles")
}

func (repo *reportingRepository) GetProfileIDsBySchoolAndGeneration(ctx context.Context, schoolID, generationID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT id FROM users WHERE school_id = $1 AND generation_id = $2`, schoolID, generationID)
	return ids, errors.Wrap(err, "querying generation profiles")
}

func (repo *reportingRepository) GetProfileIDsByCommunity(ctx context.Context, communityID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE community_id = $1`, communityID)
	return ids, errors.Wrap(err, "querying community profiles")
}

func (repo *reportingRepository) GetAssignedStudentIDs(ctx context.Context, consultantID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `
		SELECT student_id FROM consultant_assignments
		WHERE consultant_id = $1 AND is_active = TRUE`,
		consultantID)
	return ids, errors.Wrap(err, "querying consultant assignments")
}

func (repo *reportingRepository) GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error) {
	return repo.names(ctx, "schools", ids)
}

func (repo *reportingRepository) GetGenerationNames(ctx context.Context, ids []string) (map[string]string, error) {
	return repo.names(ctx, "generations", ids)
}

func (repo *reportingRepository) GetCommunityNames(ctx context.Context, ids []string) (map[string]string, error) {
	return repo.names(ctx, "communities", ids)
}

func (repo *reportingRepository) names(ctx context.Context, table string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s query", table)
	}

	rows, err := repo.db.QueryxContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err = rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrapf(err, "scanning %s", table)
		}
		out[id] = name
	}
	return out, errors.Wrapf(rows.Err(), "reading %s", table)
}

func (repo *reportingRepository) GetEnrollments(ctx context.Context, userIDs []string) ([]reporting.Enrollment, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT user_id, course_id, progress_percentage, time_spent_minutes, completed_at, updated_at
		FROM course_enrollments WHERE user_id IN (?)`,
		userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building enrollments query")
	}
	var out []reporting.Enrollment
	err = repo.db.SelectContext(ctx, &out, repo.db.Rebind(query), args...)
	return out, errors.Wrap(err, "querying enrollments")
}

func (repo *reportingRepository) GetPathSummaries(ctx context.Context, userIDs []string) ([]reporting.PathSummary, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT user_id, total_minutes, last_session_date
		FROM learning_path_summaries WHERE user_id IN (?)`,
		userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building summaries query")
	}
	var out []reporting.PathSummary
	err = repo.db.SelectContext(ctx, &out, repo.db.Rebind(query), args...)
	return out, errors.Wrap(err, "querying learning path summaries")
}
