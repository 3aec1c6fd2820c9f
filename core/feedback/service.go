package feedback

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/fnedigital/genera/core"
)

const newFeedbackTemplate = "feedback-new"

type Service struct {
	repo    Repository
	mailSvc core.EmailService
	log     core.Logger

	// adminRecipients receive a notification for every new submission
	adminRecipients func() []mail.Address
}

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger, adminRecipients func() []mail.Address) *Service {
	return &Service{
		repo:            repo,
		mailSvc:         mailSvc,
		log:             log,
		adminRecipients: adminRecipients,
	}
}

func (svc *Service) Create(nf NewFeedback) (Feedback, error) {
	nf.Clean()
	now := time.Now().UTC()
	fb := Feedback{
		ID:          uuid.New().String(),
		UserID:      nf.UserID,
		UserName:    nf.UserName,
		UserEmail:   nf.UserEmail,
		Category:    nf.Category,
		PageContext: nf.PageContext,
		Message:     nf.Message,
		Rating:      nf.Rating,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	fb, err := svc.repo.CreateFeedback(fb)
	if err != nil {
		return Feedback{}, err
	}
	svc.notifyAdmins(fb)
	return fb, nil
}

func (svc *Service) notifyAdmins(fb Feedback) {
	recipients := svc.adminRecipients()
	if len(recipients) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           recipients,
		Subject:      fmt.Sprintf("Nuevo feedback: %s", fb.Category),
		TemplateName: newFeedbackTemplate,
		TemplateData: fb,
	})
}

func (svc *Service) Filter(filter QueryFilter) ([]Feedback, error) {
	return svc.repo.FilterFeedback(filter)
}

func (svc *Service) GetByID(id string) (Feedback, error) {
	return svc.repo.GetFeedbackByID(id)
}

// UpdateStatus moves a feedback through the workflow and records the
// transition in the activity trail.
func (svc *Service) UpdateStatus(id, status, authorID string) (Feedback, error) {
	if !IsValidStatus(status) {
		return Feedback{}, ErrInvalidStatus
	}
	fb, err := svc.repo.GetFeedbackByID(id)
	if err != nil {
		return Feedback{}, err
	}
	if fb.Status == status {
		return fb, nil
	}

	old := fb.Status
	fb.Status = status
	fb.UpdatedAt = time.Now().UTC()
	fb, err = svc.repo.UpdateFeedback(fb)
	if err != nil {
		return Feedback{}, err
	}

	if _, err = svc.repo.CreateActivity(Activity{
		ID:         uuid.New().String(),
		FeedbackID: fb.ID,
		AuthorID:   authorID,
		Kind:       ActivityStatusChange,
		OldStatus:  old,
		NewStatus:  status,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		// the status change itself stuck; a missing trail row is not fatal
		svc.log.Warn("feedback: recording status change activity failed", "err", err)
	}
	return fb, nil
}

func (svc *Service) AddComment(id, authorID, comment string) (Activity, error) {
	comment = core.CleanString(comment)
	if _, err := svc.repo.GetFeedbackByID(id); err != nil {
		return Activity{}, err
	}
	return svc.repo.CreateActivity(Activity{
		ID:         uuid.New().String(),
		FeedbackID: id,
		AuthorID:   authorID,
		Kind:       ActivityComment,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) GetActivities(id string) ([]Activity, error) {
	return svc.repo.GetActivities(id)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteFeedback(id)
}
