package notification

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

// Notification types.
const (
	TypeSystem     = "system"
	TypeCourse     = "course"
	TypeCommunity  = "community"
	TypeFeedback   = "feedback"
	TypeAssignment = "assignment"
)

type (
	Notification struct {
		ID        string    `json:"id" db:"id"`
		UserID    string    `json:"user_id" db:"user_id"`
		Type      string    `json:"type" db:"type"`
		Title     string    `json:"title" db:"title"`
		Body      string    `json:"body" db:"body"`
		Read      bool      `json:"read" db:"read"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	NewNotification struct {
		UserID string `json:"user_id" validate:"required"`
		Type   string `json:"type" validate:"required,oneof=system course community feedback assignment"`
		Title  string `json:"title" validate:"required,max=255"`
		Body   string `json:"body" validate:"max=2000"`
	}

	Repository interface {
		CreateNotification(n Notification) (Notification, error)
		GetNotificationByID(id string) (Notification, error)
		// QueryByUser returns the user's notifications, unread first, newest
		// first within each group.
		QueryByUser(userID string) ([]Notification, error)
		CountUnread(userID string) (int, error)
		SetRead(id string, read bool) error
		MarkAllRead(userID string) error
	}
)
