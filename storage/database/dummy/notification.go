package dummydb

import (
	"sort"

	"github.com/fnedigital/genera/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryByUser(userID string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []notification.Notification
	for _, n := range repo.db.table {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Read != out[j].Read {
			return !out[i].Read
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (repo *notificationRepository) CountUnread(userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) SetRead(id string, read bool) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notification.ErrNotFound
	}
	n.Read = read
	return nil
}

func (repo *notificationRepository) MarkAllRead(userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range repo.db.table {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}
