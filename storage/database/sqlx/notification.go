package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core/notification"
)

const notificationColumns = `id, user_id, type, title, body, read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	_, err := repo.db.NamedExec(`
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (:id, :user_id, :type, :title, :body, :read, :created_at)`,
		n)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id string) (notification.Notification, error) {
	var n notification.Notification
	err := repo.db.Get(&n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return notification.Notification{}, notification.ErrNotFound
	}
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryByUser(userID string) ([]notification.Notification, error) {
	var out []notification.Notification
	err := repo.db.Select(&out, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY read, created_at DESC`,
		userID)
	return out, errors.Wrap(err, "querying notifications")
}

func (repo *notificationRepository) CountUnread(userID string) (int, error) {
	var count int
	err := repo.db.Get(&count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID)
	return count, errors.Wrap(err, "counting unread notifications")
}

func (repo *notificationRepository) SetRead(id string, read bool) error {
	res, err := repo.db.Exec(`UPDATE notifications SET read = $1 WHERE id = $2`, read, id)
	if err != nil {
		return errors.Wrap(err, "updating notification")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) MarkAllRead(userID string) error {
	_, err := repo.db.Exec(`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	return errors.Wrap(err, "marking notifications read")
}
