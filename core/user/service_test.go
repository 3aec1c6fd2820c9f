package user

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[string]User
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]User)}
}

func (r *fakeRepo) CheckEmailUniqueness(email string, exclUsers ...User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, usr := range r.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, ex := range exclUsers {
			if ex.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeRepo) CreateUser(usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) QueryAllUsers() ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		out = append(out, usr)
	}
	return out, nil
}

func (r *fakeRepo) GetUserByID(id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByEmail(email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) FilterUsers(filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []User
	for _, usr := range r.users {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(usr.FirstName), s) &&
				!strings.Contains(strings.ToLower(usr.LastName), s) &&
				!strings.Contains(strings.ToLower(usr.Email), s) {
				continue
			}
		}
		out = append(out, usr)
	}
	return out, nil
}

func (r *fakeRepo) UpdateUser(usr User, isActive *bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orig, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.FirstName == "" {
		usr.FirstName = orig.FirstName
	}
	if usr.LastName == "" {
		usr.LastName = orig.LastName
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.Role == "" {
		usr.Role = orig.Role
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = orig.CreatedAt
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if !usr.SchoolID.Valid {
		usr.SchoolID = orig.SchoolID
	}
	if !usr.GenerationID.Valid {
		usr.GenerationID = orig.GenerationID
	}
	if !usr.CommunityID.Valid {
		usr.CommunityID = orig.CommunityID
	}
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = orig.IsActive
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) DeleteUsersByID(ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

type fakeRoleRepo struct {
	assignments map[string][]role.Assignment
	superadmins map[string]bool
	superErr    error
	superCalls  int
}

var _ role.Repository = (*fakeRoleRepo)(nil)

func (r *fakeRoleRepo) GetActiveAssignments(ctx context.Context, userID string) ([]role.Assignment, error) {
	return r.assignments[userID], nil
}

func (r *fakeRoleRepo) GetRules(ctx context.Context, roleTypes []string) ([]role.Rule, error) {
	return nil, nil
}

func (r *fakeRoleRepo) IsSuperadmin(ctx context.Context, userID string) (bool, error) {
	r.superCalls++
	if r.superErr != nil {
		return false, r.superErr
	}
	return r.superadmins[userID], nil
}

type recordingMail struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*recordingMail)(nil)

func (m *recordingMail) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		m.sent = append(m.sent, *msg)
	}
}

func newTestService(repo *fakeRepo, roleRepo *fakeRoleRepo, mailSvc *recordingMail) *Service {
	if roleRepo == nil {
		roleRepo = &fakeRoleRepo{}
	}
	if mailSvc == nil {
		mailSvc = &recordingMail{}
	}
	core.Conf = core.NewTestConfig()
	return NewService(repo, roleRepo, mailSvc, core.NopLogger{}, core.Conf)
}

func TestCreateHashesPasswordAndActivates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)

	usr, err := svc.Create(NewUser{
		FirstName: "Ana",
		LastName:  "Soto",
		Email:     "ana@fne.cl",
		Role:      role.RoleDocente,
		SchoolID:  "s1",
		Password:  "s3cret-pwd",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.SchoolID.Valid)
	assert.NoError(t, usr.CheckPassword("s3cret-pwd"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func TestCheckEmailUniqueness(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)
	usr, err := svc.Create(NewUser{FirstName: "Ana", LastName: "Soto", Email: "ana@fne.cl", Password: "s3cret-pwd"})
	assert.NoError(t, err)

	err = svc.CheckEmailUniqueness("ana@fne.cl")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	assert.NoError(t, svc.CheckEmailUniqueness("ana@fne.cl", usr), "self is excluded on update")
	assert.NoError(t, svc.CheckEmailUniqueness("otra@fne.cl"))
}

func TestIdentityDerivation(t *testing.T) {
	repo := newFakeRepo()
	roleRepo := &fakeRoleRepo{
		assignments: map[string][]role.Assignment{
			"a1": {{UserID: "a1", RoleType: role.RoleAdmin, IsActive: true}},
			"d1": {{UserID: "d1", RoleType: role.RoleDocente, IsActive: true, CommunityID: null.StringFrom("com1")}},
		},
		superadmins: map[string]bool{"a1": true},
	}
	svc := newTestService(repo, roleRepo, nil)

	admin, err := svc.Identity(context.Background(), User{ID: "a1"})
	assert.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsSuperadmin)
	assert.Equal(t, role.RoleAdmin, admin.Role)

	docente, err := svc.Identity(context.Background(), User{ID: "d1", Role: role.RoleDocente})
	assert.NoError(t, err)
	assert.False(t, docente.IsAdmin)
	assert.False(t, docente.IsSuperadmin)
	assert.True(t, docente.HasCommunity, "community membership comes from the assignment")

	// legacy role column alone never grants admin
	legacy, err := svc.Identity(context.Background(), User{ID: "x1", Role: role.RoleAdmin})
	assert.NoError(t, err)
	assert.False(t, legacy.IsAdmin)
}

func TestIdentitySuperadminFlagGuard(t *testing.T) {
	repo := newFakeRepo()
	roleRepo := &fakeRoleRepo{superadmins: map[string]bool{"a1": true}}
	svc := newTestService(repo, roleRepo, nil)
	core.Conf.SetTestFlag(core.FlagSuperadminRBAC, false)

	identity, err := svc.Identity(context.Background(), User{ID: "a1"})
	assert.NoError(t, err)
	assert.False(t, identity.IsSuperadmin)
	assert.Equal(t, 0, roleRepo.superCalls, "lookup is skipped when the flag is off")
}

func TestIdentitySuperadminLookupFailureDegrades(t *testing.T) {
	repo := newFakeRepo()
	roleRepo := &fakeRoleRepo{superErr: assert.AnError}
	svc := newTestService(repo, roleRepo, nil)

	identity, err := svc.Identity(context.Background(), User{ID: "a1"})
	assert.NoError(t, err)
	assert.False(t, identity.IsSuperadmin)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	mailSvc := &recordingMail{}
	svc := newTestService(repo, nil, mailSvc)
	usr, err := svc.Create(NewUser{FirstName: "Ana", LastName: "Soto", Email: "ana@fne.cl", Password: "old-password"})
	assert.NoError(t, err)

	assert.NoError(t, svc.RequestPasswordReset("ana@fne.cl"))
	assert.Len(t, mailSvc.sent, 1)
	assert.Equal(t, passwordResetTemplate, mailSvc.sent[0].TemplateName)

	token, err := MakeToken(usr)
	assert.NoError(t, err)

	updated, err := svc.ResetPassword(ResetUserPassword{
		Token:           token,
		UID:             EncodeUID(usr),
		Password:        "new-password",
		PasswordConfirm: "new-password",
	})
	assert.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("new-password"))

	// the token is single-use: the password change invalidates it
	_, err = svc.ResetPassword(ResetUserPassword{
		Token:    token,
		UID:      EncodeUID(usr),
		Password: "another-password",
	})
	assert.Equal(t, errInvalidToken, err)
}

func TestRequestPasswordResetUnknownOrInactive(t *testing.T) {
	repo := newFakeRepo()
	mailSvc := &recordingMail{}
	svc := newTestService(repo, nil, mailSvc)

	assert.Equal(t, ErrNotFound, svc.RequestPasswordReset("nadie@fne.cl"))

	usr, err := svc.Create(NewUser{FirstName: "Ana", LastName: "Soto", Email: "ana@fne.cl", Password: "s3cret-pwd"})
	assert.NoError(t, err)
	inactive := false
	_, err = svc.Update(usr.ID, UpdateUser{IsActive: &inactive})
	assert.NoError(t, err)

	assert.Equal(t, ErrNotFound, svc.RequestPasswordReset("ana@fne.cl"))
	assert.Empty(t, mailSvc.sent)
}
