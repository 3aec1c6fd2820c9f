package reporting

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// ErrReportingDenied is returned when the requesting role has no
	// reporting scope at all.
	ErrReportingDenied = errors.New("reporting: access denied for role")
)

// ScopeError marks a mis-provisioned profile: the role requires an
// organizational id the profile lacks. Distinct from fetch failures so the
// caller can surface it as a configuration problem.
type ScopeError struct {
	Role    string
	Missing string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("reporting: role %q requires %s on the profile", e.Role, e.Missing)
}

type (
	// Profile is a reportable user's profile row plus the organizational
	// names spliced on from independent lookups.
	Profile struct {
		UserID    string      `json:"user_id" db:"user_id"`
		FirstName string      `json:"first_name" db:"first_name"`
		LastName  string      `json:"last_name" db:"last_name"`
		Email     string      `json:"email" db:"email"`
		Role      string      `json:"role" db:"role"`
		IsActive  bool        `json:"is_active" db:"is_active"`

		SchoolID     null.String `json:"school_id" db:"school_id"`
		GenerationID null.String `json:"generation_id" db:"generation_id"`
		CommunityID  null.String `json:"community_id" db:"community_id"`

		SchoolName     string `json:"school_name,omitempty" db:"-"`
		GenerationName string `json:"generation_name,omitempty" db:"-"`
		CommunityName  string `json:"community_name,omitempty" db:"-"`
	}

	// Enrollment is one user-course enrollment row.
	Enrollment struct {
		UserID             string    `json:"user_id" db:"user_id"`
		CourseID           string    `json:"course_id" db:"course_id"`
		ProgressPercentage float64   `json:"progress_percentage" db:"progress_percentage"`
		TimeSpentMinutes   int       `json:"time_spent_minutes" db:"time_spent_minutes"`
		CompletedAt        null.Time `json:"completed_at" db:"completed_at"`
		UpdatedAt          null.Time `json:"updated_at" db:"updated_at"`
	}

	// PathSummary is an optional per-user learning-path rollup. Lookups for
	// these may fail without failing the whole aggregation.
	PathSummary struct {
		UserID          string    `json:"user_id" db:"user_id"`
		TotalMinutes    int       `json:"total_minutes" db:"total_minutes"`
		LastSessionDate null.Time `json:"last_session_date" db:"last_session_date"`
	}

	// ProgressRecord is the per-user aggregate the dashboard renders.
	ProgressRecord struct {
		UserID         string `json:"user_id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Email          string `json:"email"`
		SchoolName     string `json:"school_name,omitempty"`
		GenerationName string `json:"generation_name,omitempty"`
		CommunityName  string `json:"community_name,omitempty"`

		TotalCourses          int       `json:"total_courses"`
		CompletedCourses      int       `json:"completed_courses"`
		CompletionPercentage  int       `json:"completion_percentage"`
		TotalTimeSpentMinutes int       `json:"total_time_spent_minutes"`
		LastActivity          null.Time `json:"last_activity_date"`
	}
)

// Progress status filter values.
const (
	StatusActive     = "active"      // last activity within 7 days
	StatusCompleted  = "completed"   // completion at 100 or above
	StatusInProgress = "in_progress" // strictly between 0 and 100
)

// Filter narrows the aggregated result set after folding.
type Filter struct {
	Status string `json:"status" query:"status"`
	School string `json:"school" query:"school"`
}

// Repository is the read side the aggregator folds over. Implementations
// scope nothing beyond the ids they are handed; scoping happens in the
// service.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	// GetProfiles returns active profiles for the given user ids, or every
	// active profile when userIDs is nil (unrestricted admin scope).
	GetProfiles(ctx context.Context, userIDs []string) ([]Profile, error)

	GetProfileIDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	GetProfileIDsBySchoolAndGeneration(ctx context.Context, schoolID, generationID string) ([]string, error)
	GetProfileIDsByCommunity(ctx context.Context, communityID string) ([]string, error)
	// GetAssignedStudentIDs returns student ids from the consultant's active
	// assignments.
	GetAssignedStudentIDs(ctx context.Context, consultantID string) ([]string, error)

	GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error)
	GetGenerationNames(ctx context.Context, ids []string) (map[string]string, error)
	GetCommunityNames(ctx context.Context, ids []string) (map[string]string, error)

	GetEnrollments(ctx context.Context, userIDs []string) ([]Enrollment, error)
	GetPathSummaries(ctx context.Context, userIDs []string) ([]PathSummary, error)
}

// ErrNotFound is returned by repositories when a profile does not exist.
var ErrNotFound = errors.New("reporting: profile not found")
