package notification

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/storage/kvstore"
)

type fakeRepo struct {
	mu            sync.Mutex
	notifications map[string]Notification
	setReadErr    error
	markAllErr    error
	countCalls    int
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{notifications: make(map[string]Notification)}
}

func (r *fakeRepo) CreateNotification(n Notification) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.ID] = n
	return n, nil
}

func (r *fakeRepo) GetNotificationByID(id string) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		return n, nil
	}
	return Notification{}, ErrNotFound
}

func (r *fakeRepo) QueryByUser(userID string) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
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

func (r *fakeRepo) CountUnread(userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countCalls++
	var count int
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) SetRead(id string, read bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setReadErr != nil {
		return r.setReadErr
	}
	n, ok := r.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = read
	r.notifications[id] = n
	return nil
}

func (r *fakeRepo) MarkAllRead(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markAllErr != nil {
		return r.markAllErr
	}
	for id, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
			r.notifications[id] = n
		}
	}
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, kvstore.NewMemoryCache(), core.NopLogger{})
}

func seed(t *testing.T, svc *Service, userID string, n int) []Notification {
	t.Helper()
	out := make([]Notification, 0, n)
	for i := 0; i < n; i++ {
		created, err := svc.Create(NewNotification{UserID: userID, Type: TypeSystem, Title: "Aviso"})
		assert.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestUnreadCountCachesAfterFirstLookup(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seed(t, svc, "u1", 3)

	count, err := svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, repo.countCalls, "second lookup is served from cache")
}

func TestMarkReadMovesCounterSpeculatively(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ns := seed(t, svc, "u1", 2)

	// prime the cached counter
	_, err := svc.UnreadCount("u1")
	assert.NoError(t, err)

	assert.NoError(t, svc.MarkRead(ns[0].ID))
	count, err := svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, repo.countCalls, "counter was maintained in cache, not recounted")

	// marking an already-read notification is a no-op
	assert.NoError(t, svc.MarkRead(ns[0].ID))
	count, _ = svc.UnreadCount("u1")
	assert.Equal(t, 1, count)
}

func TestMarkReadRollsBackOnWriteFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ns := seed(t, svc, "u1", 2)
	_, err := svc.UnreadCount("u1")
	assert.NoError(t, err)

	repo.setReadErr = assert.AnError
	assert.Error(t, svc.MarkRead(ns[0].ID))

	// the speculative decrement was replayed in reverse
	count, err := svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seed(t, svc, "u1", 3)
	_, err := svc.UnreadCount("u1")
	assert.NoError(t, err)

	assert.NoError(t, svc.MarkAllRead("u1"))
	count, err := svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	list, err := svc.QueryByUser("u1")
	assert.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}
}

func TestMarkAllReadRestoresCounterOnFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seed(t, svc, "u1", 3)
	_, err := svc.UnreadCount("u1")
	assert.NoError(t, err)

	repo.markAllErr = assert.AnError
	assert.Error(t, svc.MarkAllRead("u1"))

	count, err := svc.UnreadCount("u1")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestQueryByUserUnreadFirst(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ns := seed(t, svc, "u1", 3)
	seed(t, svc, "u2", 1)

	assert.NoError(t, svc.MarkRead(ns[1].ID))

	list, err := svc.QueryByUser("u1")
	assert.NoError(t, err)
	assert.Len(t, list, 3)
	assert.False(t, list[0].Read)
	assert.False(t, list[1].Read)
	assert.True(t, list[2].Read)
	assert.Equal(t, ns[1].ID, list[2].ID)
}
