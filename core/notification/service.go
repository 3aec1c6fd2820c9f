package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/fnedigital/genera/core"
)

const unreadKeyPrefix = "notifications:unread:"

// Service fronts the notification table with a cached unread counter per
// user. Read-state writes are speculative: the counter moves first, the
// remote write follows, and a failed write replays the inverse transition so
// the badge never drifts from what the store will eventually say.
type Service struct {
	repo  Repository
	cache core.Cache
	log   core.Logger
}

func NewService(repo Repository, cache core.Cache, log core.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func (svc *Service) Create(nn NewNotification) (Notification, error) {
	n := Notification{
		ID:        uuid.New().String(),
		UserID:    nn.UserID,
		Type:      nn.Type,
		Title:     core.CleanString(nn.Title),
		Body:      core.CleanString(nn.Body),
		CreatedAt: time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(n)
	if err != nil {
		return Notification{}, err
	}
	svc.shiftUnread(n.UserID, +1)
	return n, nil
}

func (svc *Service) QueryByUser(userID string) ([]Notification, error) {
	return svc.repo.QueryByUser(userID)
}

// UnreadCount serves the badge from cache when possible, falling back to the
// store and repopulating on a miss.
func (svc *Service) UnreadCount(userID string) (int, error) {
	var count int
	if err := svc.cache.Get(unreadKeyPrefix+userID, &count); err == nil {
		return count, nil
	}
	count, err := svc.repo.CountUnread(userID)
	if err != nil {
		return 0, err
	}
	if err = svc.cache.Set(unreadKeyPrefix+userID, count); err != nil {
		svc.log.Warn("notification: caching unread count failed", "err", err)
	}
	return count, nil
}

// MarkRead flips one notification to read. The cached counter is moved
// before the write and moved back if the write fails.
func (svc *Service) MarkRead(id string) error {
	n, err := svc.repo.GetNotificationByID(id)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}

	svc.shiftUnread(n.UserID, -1)
	if err = svc.repo.SetRead(id, true); err != nil {
		svc.shiftUnread(n.UserID, +1)
		return err
	}
	return nil
}

// MarkAllRead zeroes the user's unread state, restoring the previous count
// if the remote write fails.
func (svc *Service) MarkAllRead(userID string) error {
	prev, prevKnown := svc.cachedUnread(userID)

	if err := svc.cache.Set(unreadKeyPrefix+userID, 0); err != nil {
		svc.log.Warn("notification: caching unread count failed", "err", err)
	}
	if err := svc.repo.MarkAllRead(userID); err != nil {
		if prevKnown {
			if cerr := svc.cache.Set(unreadKeyPrefix+userID, prev); cerr != nil {
				svc.log.Warn("notification: restoring unread count failed", "err", cerr)
			}
		} else {
			svc.dropUnread(userID)
		}
		return err
	}
	return nil
}

func (svc *Service) cachedUnread(userID string) (int, bool) {
	var count int
	if err := svc.cache.Get(unreadKeyPrefix+userID, &count); err != nil {
		return 0, false
	}
	return count, true
}

func (svc *Service) shiftUnread(userID string, delta int) {
	count, ok := svc.cachedUnread(userID)
	if !ok {
		return // no speculative state to maintain, next UnreadCount repopulates
	}
	count += delta
	if count < 0 {
		count = 0
	}
	if err := svc.cache.Set(unreadKeyPrefix+userID, count); err != nil {
		svc.log.Warn("notification: caching unread count failed", "err", err)
		svc.dropUnread(userID)
	}
}

func (svc *Service) dropUnread(userID string) {
	if err := svc.cache.Delete(unreadKeyPrefix + userID); err != nil {
		svc.log.Warn("notification: dropping unread count failed", "err", err)
	}
}
