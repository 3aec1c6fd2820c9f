package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

// activeWindow bounds the "active" status filter: last activity within this
// window counts as active.
const activeWindow = 7 * 24 * time.Hour

// Service scopes and folds the reporting source tables into per-user
// progress records.
type Service struct {
	repo  Repository
	log   core.Logger
	cache *expirable.LRU[string, []ProgressRecord]
}

func NewService(repo Repository, log core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:  repo,
		log:   log,
		cache: expirable.NewLRU[string, []ProgressRecord](conf.Reporting.CacheSize, nil, conf.Reporting.CacheTTL),
	}
}

// GetUserProgress returns progress records for every user the requester may
// report on, per the role scope mapping. Results are cached briefly per
// scope+filter signature.
func (s *Service) GetUserProgress(ctx context.Context, requester role.Identity, filter Filter) ([]ProgressRecord, error) {
	key := cacheKey(requester, filter)
	if records, ok := s.cache.Get(key); ok {
		return records, nil
	}

	userIDs, err := s.resolveScope(ctx, requester)
	if err != nil {
		return nil, err
	}

	records, err := s.aggregate(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	records = applyFilter(records, filter, time.Now())

	s.cache.Add(key, records)
	return records, nil
}

// InvalidateCache drops all cached results, for use after bulk data imports.
func (s *Service) InvalidateCache() { s.cache.Purge() }

// resolveScope maps the requester's role to the set of reportable user ids.
// nil means unrestricted (admin). A profile missing the organizational id
// its role requires is a ScopeError, not a fetch failure.
func (s *Service) resolveScope(ctx context.Context, requester role.Identity) ([]string, error) {
	if requester.IsAdmin || requester.Role == role.RoleAdmin {
		return nil, nil
	}

	switch requester.Role {
	case role.RoleConsultor:
		ids, err := s.repo.GetAssignedStudentIDs(ctx, requester.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "loading consultant assignments")
		}
		return nonEmpty(ids), nil

	case role.RoleEquipoDirectivo:
		profile, err := s.requesterProfile(ctx, requester)
		if err != nil {
			return nil, err
		}
		if !profile.SchoolID.Valid {
			return nil, &ScopeError{Role: requester.Role, Missing: "school_id"}
		}
		ids, err := s.repo.GetProfileIDsBySchool(ctx, profile.SchoolID.String)
		return nonEmpty(ids), errors.Wrap(err, "loading school scope")

	case role.RoleLiderGeneracion:
		profile, err := s.requesterProfile(ctx, requester)
		if err != nil {
			return nil, err
		}
		if !profile.SchoolID.Valid {
			return nil, &ScopeError{Role: requester.Role, Missing: "school_id"}
		}
		if !profile.GenerationID.Valid {
			return nil, &ScopeError{Role: requester.Role, Missing: "generation_id"}
		}
		ids, err := s.repo.GetProfileIDsBySchoolAndGeneration(ctx, profile.SchoolID.String, profile.GenerationID.String)
		return nonEmpty(ids), errors.Wrap(err, "loading generation scope")

	case role.RoleLiderComunidad:
		profile, err := s.requesterProfile(ctx, requester)
		if err != nil {
			return nil, err
		}
		if !profile.CommunityID.Valid {
			return nil, &ScopeError{Role: requester.Role, Missing: "community_id"}
		}
		ids, err := s.repo.GetProfileIDsByCommunity(ctx, profile.CommunityID.String)
		return nonEmpty(ids), errors.Wrap(err, "loading community scope")
	}
	return nil, ErrReportingDenied
}

func (s *Service) requesterProfile(ctx context.Context, requester role.Identity) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, requester.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "loading requester profile")
	}
	return profile, nil
}

// nonEmpty keeps an empty scope distinguishable from the unrestricted nil
// scope: a scoped role with zero students must see zero rows, not all rows.
func nonEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (s *Service) aggregate(ctx context.Context, userIDs []string) ([]ProgressRecord, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []ProgressRecord{}, nil
	}

	profiles, err := s.repo.GetProfiles(ctx, userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "loading profiles")
	}
	if len(profiles) == 0 {
		return []ProgressRecord{}, nil
	}
	if err = s.spliceOrgNames(ctx, profiles); err != nil {
		return nil, err
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}

	enrollments, err := s.repo.GetEnrollments(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading enrollments")
	}

	// learning-path data is best-effort: a failure here degrades to "no
	// learning-path data" instead of failing the whole aggregation
	summaries, err := s.repo.GetPathSummaries(ctx, ids)
	if err != nil {
		s.log.Warn("reporting: learning path summaries unavailable", "err", err)
		summaries = nil
	}

	byUser := make(map[string][]Enrollment, len(profiles))
	for _, e := range enrollments {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	summaryByUser := make(map[string]PathSummary, len(summaries))
	for _, ps := range summaries {
		summaryByUser[ps.UserID] = ps
	}

	records := make([]ProgressRecord, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, fold(p, byUser[p.UserID], summaryByUser[p.UserID]))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastName != records[j].LastName {
			return records[i].LastName < records[j].LastName
		}
		return records[i].FirstName < records[j].FirstName
	})
	return records, nil
}

// spliceOrgNames merges school/generation/community names onto the profiles
// via three independent id-set lookups, not a relational join.
func (s *Service) spliceOrgNames(ctx context.Context, profiles []Profile) error {
	var schoolIDs, generationIDs, communityIDs []string
	for _, p := range profiles {
		if p.SchoolID.Valid {
			schoolIDs = append(schoolIDs, p.SchoolID.String)
		}
		if p.GenerationID.Valid {
			generationIDs = append(generationIDs, p.GenerationID.String)
		}
		if p.CommunityID.Valid {
			communityIDs = append(communityIDs, p.CommunityID.String)
		}
	}

	schools, err := s.repo.GetSchoolNames(ctx, dedupe(schoolIDs))
	if err != nil {
		return errors.Wrap(err, "loading school names")
	}
	generations, err := s.repo.GetGenerationNames(ctx, dedupe(generationIDs))
	if err != nil {
		return errors.Wrap(err, "loading generation names")
	}
	communities, err := s.repo.GetCommunityNames(ctx, dedupe(communityIDs))
	if err != nil {
		return errors.Wrap(err, "loading community names")
	}

	for i := range profiles {
		p := &profiles[i]
		if p.SchoolID.Valid {
			p.SchoolName = schools[p.SchoolID.String]
		}
		if p.GenerationID.Valid {
			p.GenerationName = generations[p.GenerationID.String]
		}
		if p.CommunityID.Valid {
			p.CommunityName = communities[p.CommunityID.String]
		}
	}
	return nil
}

func fold(p Profile, enrollments []Enrollment, summary PathSummary) ProgressRecord {
	rec := ProgressRecord{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		SchoolName:     p.SchoolName,
		GenerationName: p.GenerationName,
		CommunityName:  p.CommunityName,
		TotalCourses:   len(enrollments),
	}

	var lastActivity null.Time
	for _, e := range enrollments {
		if e.ProgressPercentage >= 100 {
			rec.CompletedCourses++
		}
		rec.TotalTimeSpentMinutes += e.TimeSpentMinutes
		lastActivity = laterOf(lastActivity, e.CompletedAt)
		lastActivity = laterOf(lastActivity, e.UpdatedAt)
	}
	if summary.UserID != "" {
		rec.TotalTimeSpentMinutes += summary.TotalMinutes
		lastActivity = laterOf(lastActivity, summary.LastSessionDate)
	}
	rec.LastActivity = lastActivity

	if rec.TotalCourses > 0 {
		rec.CompletionPercentage = int(math.Round(float64(rec.CompletedCourses) / float64(rec.TotalCourses) * 100))
	}
	return rec
}

func laterOf(a, b null.Time) null.Time {
	if !b.Valid {
		return a
	}
	if !a.Valid || b.Time.After(a.Time) {
		return b
	}
	return a
}

func applyFilter(records []ProgressRecord, filter Filter, now time.Time) []ProgressRecord {
	if filter.Status == "" && filter.School == "" {
		return records
	}
	out := make([]ProgressRecord, 0, len(records))
	for _, rec := range records {
		if filter.School != "" && !strings.EqualFold(rec.SchoolName, filter.School) {
			continue
		}
		if filter.Status != "" && !matchesStatus(rec, filter.Status, now) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesStatus(rec ProgressRecord, status string, now time.Time) bool {
	switch status {
	case StatusActive:
		return rec.LastActivity.Valid && now.Sub(rec.LastActivity.Time) <= activeWindow
	case StatusCompleted:
		return rec.CompletionPercentage >= 100
	case StatusInProgress:
		return rec.CompletionPercentage > 0 && rec.CompletionPercentage < 100
	}
	return false
}

func cacheKey(requester role.Identity, filter Filter) string {
	r := requester.Role
	if requester.IsAdmin {
		r = role.RoleAdmin
	}
	return fmt.Sprintf("%s|%s|%s|%s", r, requester.UserID, filter.Status, filter.School)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
