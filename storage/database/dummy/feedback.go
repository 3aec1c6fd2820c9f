package dummydb

import (
	"sort"
	"strings"

	"github.com/fnedigital/genera/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) CreateFeedback(fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.feedback[fb.ID] = &fb
	return fb, nil
}

func (repo *feedbackRepository) GetFeedbackByID(id string) (feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fb, ok := repo.db.feedback[id]; ok {
		return *fb, nil
	}
	return feedback.Feedback{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) FilterFeedback(filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []feedback.Feedback
	for _, fb := range repo.db.feedback {
		if filter.Status != "" && fb.Status != filter.Status {
			continue
		}
		if filter.Category != "" && fb.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesFeedbackSearch(*fb, filter.Search) {
			continue
		}
		out = append(out, *fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesFeedbackSearch(fb feedback.Feedback, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(fb.Message), s) ||
		strings.Contains(strings.ToLower(fb.UserName), s) ||
		strings.Contains(strings.ToLower(fb.UserEmail), s)
}

func (repo *feedbackRepository) UpdateFeedback(fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.feedback[fb.ID]; !ok {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	repo.db.feedback[fb.ID] = &fb
	return fb, nil
}

func (repo *feedbackRepository) DeleteFeedback(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.feedback, id)
	return nil
}

func (repo *feedbackRepository) CreateActivity(act feedback.Activity) (feedback.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.activities = append(repo.db.activities, act)
	return act, nil
}

func (repo *feedbackRepository) GetActivities(feedbackID string) ([]feedback.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []feedback.Activity
	for _, act := range repo.db.activities {
		if act.FeedbackID == feedbackID {
			out = append(out, act)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
