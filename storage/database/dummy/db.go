// Package dummydb is an in-memory storage backend for tests and local
// development without a database.
package dummydb

import (
	"sync"

	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/notification"
	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/role"
	"github.com/fnedigital/genera/core/user"
)

type (
	DB struct {
		user         *userTable
		role         *roleTable
		org          *orgTable
		enrollment   *enrollmentTable
		feedback     *feedbackTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	roleTable struct {
		sync.RWMutex
		assignments map[string]*role.Assignment
		rules       []role.Rule
		superadmins map[string]bool
	}

	orgTable struct {
		sync.RWMutex
		schools     map[string]string
		generations map[string]string
		communities map[string]string
		// consultant id -> student ids, active assignments only
		consultants map[string][]string
	}

	enrollmentTable struct {
		sync.RWMutex
		enrollments []reporting.Enrollment
		summaries   []reporting.PathSummary
	}

	feedbackTable struct {
		sync.RWMutex
		feedback   map[string]*feedback.Feedback
		activities []feedback.Activity
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		role: &roleTable{
			assignments: make(map[string]*role.Assignment),
			superadmins: make(map[string]bool),
		},
		org: &orgTable{
			schools:     make(map[string]string),
			generations: make(map[string]string),
			communities: make(map[string]string),
			consultants: make(map[string][]string),
		},
		enrollment: &enrollmentTable{},
		feedback:   &feedbackTable{feedback: make(map[string]*feedback.Feedback)},
		notification: &notificationTable{
			table: make(map[string]*notification.Notification),
		},
	}
	return db, nil
}

// Seeding helpers for tests and local bootstrap.

func (db *DB) SeedSchool(id, name string) {
	db.org.Lock()
	defer db.org.Unlock()
	db.org.schools[id] = name
}

func (db *DB) SeedGeneration(id, name string) {
	db.org.Lock()
	defer db.org.Unlock()
	db.org.generations[id] = name
}

func (db *DB) SeedCommunity(id, name string) {
	db.org.Lock()
	defer db.org.Unlock()
	db.org.communities[id] = name
}

func (db *DB) SeedConsultantAssignment(consultantID string, studentIDs ...string) {
	db.org.Lock()
	defer db.org.Unlock()
	db.org.consultants[consultantID] = append(db.org.consultants[consultantID], studentIDs...)
}

func (db *DB) SeedEnrollment(e reporting.Enrollment) {
	db.enrollment.Lock()
	defer db.enrollment.Unlock()
	db.enrollment.enrollments = append(db.enrollment.enrollments, e)
}

func (db *DB) SeedPathSummary(ps reporting.PathSummary) {
	db.enrollment.Lock()
	defer db.enrollment.Unlock()
	db.enrollment.summaries = append(db.enrollment.summaries, ps)
}

func (db *DB) SeedSuperadmin(userID string) {
	db.role.Lock()
	defer db.role.Unlock()
	db.role.superadmins[userID] = true
}
