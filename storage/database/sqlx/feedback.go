package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core/feedback"
)

const feedbackColumns = `id, user_id, user_name, user_email, category, page_context,
	message, rating, status, created_at, updated_at`

type activityRow struct {
	ID         string      `db:"id"`
	FeedbackID string      `db:"feedback_id"`
	AuthorID   string      `db:"author_id"`
	Kind       string      `db:"kind"`
	Comment    null.String `db:"comment"`
	OldStatus  null.String `db:"old_status"`
	NewStatus  null.String `db:"new_status"`
	CreatedAt  sql.NullTime `db:"created_at"`
}

func (r activityRow) toActivity() feedback.Activity {
	act := feedback.Activity{
		ID:         r.ID,
		FeedbackID: r.FeedbackID,
		AuthorID:   r.AuthorID,
		Kind:       r.Kind,
		Comment:    r.Comment.String,
		OldStatus:  r.OldStatus.String,
		NewStatus:  r.NewStatus.String,
	}
	if r.CreatedAt.Valid {
		act.CreatedAt = r.CreatedAt.Time
	}
	return act
}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(fb feedback.Feedback) (feedback.Feedback, error) {
	_, err := repo.db.NamedExec(`
		INSERT INTO feedback (`+feedbackColumns+`)
		VALUES (:id, :user_id, :user_name, :user_email, :category, :page_context,
			:message, :rating, :status, :created_at, :updated_at)`,
		fb)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "creating feedback")
	}
	return fb, nil
}

func (repo *feedbackRepository) GetFeedbackByID(id string) (feedback.Feedback, error) {
	var fb feedback.Feedback
	err := repo.db.Get(&fb, `SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "getting feedback")
	}
	return fb, nil
}

func (repo *feedbackRepository) FilterFeedback(filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	var args []interface{}
	q := `SELECT ` + feedbackColumns + ` FROM feedback WHERE 1=1`
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		q += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		q += ` AND (message ILIKE ? OR user_name ILIKE ? OR user_email ILIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	q += ` ORDER BY created_at DESC`

	var out []feedback.Feedback
	if err := repo.db.Select(&out, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering feedback")
	}
	return out, nil
}

func (repo *feedbackRepository) UpdateFeedback(fb feedback.Feedback) (feedback.Feedback, error) {
	res, err := repo.db.NamedExec(`
		UPDATE feedback SET
			category = :category, page_context = :page_context, message = :message,
			rating = :rating, status = :status, updated_at = :updated_at
		WHERE id = :id`,
		fb)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "updating feedback")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	return fb, nil
}

func (repo *feedbackRepository) DeleteFeedback(id string) error {
	_, err := repo.db.Exec(`DELETE FROM feedback WHERE id = $1`, id)
	return errors.Wrap(err, "deleting feedback")
}

func (repo *feedbackRepository) CreateActivity(act feedback.Activity) (feedback.Activity, error) {
	row := activityRow{
		ID:         act.ID,
		FeedbackID: act.FeedbackID,
		AuthorID:   act.AuthorID,
		Kind:       act.Kind,
		Comment:    null.NewString(act.Comment, act.Comment != ""),
		OldStatus:  null.NewString(act.OldStatus, act.OldStatus != ""),
		NewStatus:  null.NewString(act.NewStatus, act.NewStatus != ""),
		CreatedAt:  sql.NullTime{Time: act.CreatedAt, Valid: true},
	}
	_, err := repo.db.NamedExec(`
		INSERT INTO feedback_activity (id, feedback_id, author_id, kind, comment, old_status, new_status, created_at)
		VALUES (:id, :feedback_id, :author_id, :kind, :comment, :old_status, :new_status, :created_at)`,
		row)
	if err != nil {
		return feedback.Activity{}, errors.Wrap(err, "creating feedback activity")
	}
	return act, nil
}

func (repo *feedbackRepository) GetActivities(feedbackID string) ([]feedback.Activity, error) {
	var rows []activityRow
	err := repo.db.Select(&rows, `
		SELECT id, feedback_id, author_id, kind, comment, old_status, new_status, created_at
		FROM feedback_activity
		WHERE feedback_id = $1
		ORDER BY created_at`,
		feedbackID)
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback activity")
	}
	out := make([]feedback.Activity, len(rows))
	for i, row := range rows {
		out[i] = row.toActivity()
	}
	return out, nil
}
