package feedback

import (
	"time"

	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
)

var (
	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidStatus = errors.New("invalid feedback status")
)

// Feedback statuses.
const (
	StatusNew      = "new"
	StatusInReview = "in_review"
	StatusResolved = "resolved"
)

// ValidStatuses in workflow order.
var ValidStatuses = []string{StatusNew, StatusInReview, StatusResolved}

func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Activity kinds.
const (
	ActivityComment      = "comment"
	ActivityStatusChange = "status_change"
)

type (
	// Feedback is one submission from the in-app widget.
	Feedback struct {
		ID          string    `json:"id" db:"id"`
		UserID      string    `json:"user_id" db:"user_id"`
		UserName    string    `json:"user_name" db:"user_name"`
		UserEmail   string    `json:"user_email" db:"user_email"`
		Category    string    `json:"category" db:"category"`
		PageContext string    `json:"page_context" db:"page_context"`
		Message     string    `json:"message" db:"message"`
		Rating      int       `json:"rating" db:"rating"`
		Status      string    `json:"status" db:"status"`
		CreatedAt   time.Time `json:"created_at" db:"created_at"`
		UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	}

	// Activity is the audit trail under a feedback: comments and status
	// changes.
	Activity struct {
		ID         string    `json:"id" db:"id"`
		FeedbackID string    `json:"feedback_id" db:"feedback_id"`
		AuthorID   string    `json:"author_id" db:"author_id"`
		Kind       string    `json:"kind" db:"kind"`
		Comment    string    `json:"comment,omitempty" db:"comment"`
		OldStatus  string    `json:"old_status,omitempty" db:"old_status"`
		NewStatus  string    `json:"new_status,omitempty" db:"new_status"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"`
	}

	NewFeedback struct {
		UserID      string `json:"-"`
		UserName    string `json:"-"`
		UserEmail   string `json:"-"`
		Category    string `json:"category" validate:"required,oneof=bug idea question other"`
		PageContext string `json:"page_context" validate:"max=255"`
		Message     string `json:"message" validate:"required,max=2000"`
		Rating      int    `json:"rating" validate:"min=0,max=5"`
	}

	// QueryFilter applies AND over its non-zero fields; Search matches the
	// message or the author's name/email, case-insensitively.
	QueryFilter struct {
		Status   string `json:"status" query:"status"`
		Category string `json:"category" query:"category"`
		Search   string `json:"search" query:"search"`
	}

	Repository interface {
		CreateFeedback(fb Feedback) (Feedback, error)
		GetFeedbackByID(id string) (Feedback, error)
		FilterFeedback(filter QueryFilter) ([]Feedback, error)
		UpdateFeedback(fb Feedback) (Feedback, error)
		DeleteFeedback(id string) error

		CreateActivity(act Activity) (Activity, error)
		GetActivities(feedbackID string) ([]Activity, error)
	}
)

func (nf *NewFeedback) Clean() {
	nf.Category = core.CleanString(nf.Category, true /* lower */)
	nf.PageContext = core.CleanString(nf.PageContext)
	nf.Message = core.CleanString(nf.Message)
}
