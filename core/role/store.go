package role

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
)

const cacheKeyPrefix = "permissions:"

// CacheKey returns the cache key under which a user's permission map is
// persisted.
func CacheKey(userID string) string { return cacheKeyPrefix + userID }

// PermissionChecker is the read side of the Store; the navigation filter and
// the permission guard depend on this only.
type PermissionChecker interface {
	Loading() bool
	HasPermission(key string) bool
	HasAnyPermission(keys ...string) bool
	HasAllPermissions(keys ...string) bool
}

// Store is the single source of truth for "can this user do X".
//
// The permission map is built once per user session from the union of the
// user's active roles and kept in an injected cache keyed by user id: on a
// user change the cache is read synchronously so checks answer immediately,
// then a background refetch overwrites both state and cache when it resolves.
// While no map is available checks fail closed.
type Store struct {
	repo    Repository
	cache   core.Cache
	log     core.Logger
	timeout time.Duration

	mu       sync.RWMutex
	identity Identity
	perms    PermissionMap
	loading  bool
}

var _ PermissionChecker = (*Store)(nil)

func NewStore(repo Repository, cache core.Cache, log core.Logger, conf *core.Config) *Store {
	timeout := conf.Server.PermissionFetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		repo:    repo,
		cache:   cache,
		log:     log,
		timeout: timeout,
	}
}

// Identity returns the identity the store currently answers for.
func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// HasPermission reports whether the user's permission map grants key.
// Admins bypass the map entirely. While the map is still loading it returns
// false (fail-closed); callers that need to distinguish "loading" from
// "denied" check Loading separately.
func (s *Store) HasPermission(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity.IsAdmin {
		return true
	}
	if s.loading {
		return false
	}
	return s.perms[key]
}

func (s *Store) HasAnyPermission(keys ...string) bool {
	for _, key := range keys {
		if s.HasPermission(key) {
			return true
		}
	}
	return false
}

func (s *Store) HasAllPermissions(keys ...string) bool {
	for _, key := range keys {
		if !s.HasPermission(key) {
			return false
		}
	}
	return true
}

// SetUser points the store at a new user: the persisted cache is read
// synchronously (if present) so the UI can paint immediately, then a network
// refetch runs in the background and overwrites both state and cache when it
// resolves. A response that arrives after the user changed again is discarded.
func (s *Store) SetUser(ctx context.Context, identity Identity) {
	s.mu.Lock()
	s.identity = identity
	s.perms = nil
	s.loading = true

	var cached PermissionMap
	if err := s.cache.Get(cacheKeyPrefix+identity.UserID, &cached); err == nil {
		s.perms = cached
		s.loading = false
	} else if err != core.ErrCacheMiss {
		s.log.Warn("permission cache read failed", err)
	}
	s.mu.Unlock()

	go s.refresh(ctx, identity.UserID)
}

// ClearUser resets the store and removes all cached permission entries;
// called on logout.
func (s *Store) ClearUser() {
	s.mu.Lock()
	s.identity = Identity{}
	s.perms = nil
	s.loading = false
	s.mu.Unlock()

	if err := s.cache.Clear(); err != nil {
		s.log.Warn("clearing permission cache", err)
	}
}

// Refetch forces a full reload of roles and permissions from the backing
// store, bypassing the cache, then updates the persisted cache. It is
// synchronous; concurrent calls are not de-duplicated (last write wins).
func (s *Store) Refetch(ctx context.Context) {
	s.mu.RLock()
	userID := s.identity.UserID
	s.mu.RUnlock()
	if userID == "" {
		return
	}
	s.refresh(ctx, userID)
}

// refresh loads the map for userID and applies it unless the store has moved
// on to a different user in the meantime.
func (s *Store) refresh(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	perms, err := s.buildMap(ctx, userID)
	if err != nil {
		// degrade to "no permissions" rather than crash the caller
		s.log.Error("loading permissions", errors.Wrap(err, "building permission map"))
		perms = PermissionMap{}
	}

	s.mu.Lock()
	if s.identity.UserID != userID { // stale response, a newer user owns the store
		s.mu.Unlock()
		return
	}
	s.perms = perms
	s.loading = false
	s.mu.Unlock()

	if err == nil {
		if cerr := s.cache.Set(cacheKeyPrefix+userID, perms); cerr != nil {
			s.log.Warn("permission cache write failed", cerr)
		}
	}
}

func (s *Store) buildMap(ctx context.Context, userID string) (PermissionMap, error) {
	return BuildMap(ctx, s.repo, userID)
}

// BuildMap folds the user's active role assignments and their permission rows
// into a PermissionMap. The fold is a monotonic OR-reduction per key: once a
// key is granted true by any role it is never overturned by another role's
// deny row, regardless of row order.
func BuildMap(ctx context.Context, repo Repository, userID string) (PermissionMap, error) {
	assignments, err := repo.GetActiveAssignments(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "loading role assignments")
	}
	if len(assignments) == 0 {
		return PermissionMap{}, nil // no roles is not an error
	}

	seen := make(map[string]bool, len(assignments))
	roleTypes := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if !seen[a.RoleType] {
			seen[a.RoleType] = true
			roleTypes = append(roleTypes, a.RoleType)
		}
	}

	rules, err := repo.GetRules(ctx, roleTypes)
	if err != nil {
		return nil, errors.Wrap(err, "loading permission rules")
	}

	perms := make(PermissionMap, len(rules))
	for _, r := range rules {
		if r.IsTest || !r.Active {
			continue
		}
		if r.Granted {
			perms[r.PermissionKey] = true
		} else if _, ok := perms[r.PermissionKey]; !ok {
			perms[r.PermissionKey] = false
		}
	}
	return perms, nil
}
