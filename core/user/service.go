package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

const passwordResetTemplate = "password-reset"

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.FirstName, User.LastName or User.Email.
		FilterUsers(filter QueryFilter, orderings ...core.DBOrdering) ([]User, error)
		UpdateUser(usr User, isActive *bool) (User, error)
		DeleteUsersByID(ids ...string) error
	}

	Service struct {
		repo     Repository
		roleRepo role.Repository
		mailSvc  core.EmailService
		conf     *core.Config
		log      core.Logger
	}
)

func NewService(repo Repository, roleRepo role.Repository, mailSvc core.EmailService, log core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		roleRepo: roleRepo,
		mailSvc:  mailSvc,
		conf:     conf,
		log:      log,
	}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:           uuid.New().String(),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        nu.Email,
		Role:         nu.Role,
		SchoolID:     null.NewString(nu.SchoolID, nu.SchoolID != ""),
		GenerationID: null.NewString(nu.GenerationID, nu.GenerationID != ""),
		CommunityID:  null.NewString(nu.CommunityID, nu.CommunityID != ""),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(filter, orderings...)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		FirstName: uu.FirstName,
		LastName:  uu.LastName,
		Email:     uu.Email,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.SchoolID != nil {
		usr.SchoolID = null.NewString(*uu.SchoolID, *uu.SchoolID != "")
	}
	if uu.GenerationID != nil {
		usr.GenerationID = null.NewString(*uu.GenerationID, *uu.GenerationID != "")
	}
	if uu.CommunityID != nil {
		usr.CommunityID = null.NewString(*uu.CommunityID, *uu.CommunityID != "")
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}

// UpdateLastLogin stamps a successful authentication.
func (svc *Service) UpdateLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

// Identity derives the session identity the permission and navigation layers
// consume. Admin status comes from the role assignments, not the legacy role
// column; superadmin status is only consulted when its feature flag is on.
func (svc *Service) Identity(ctx context.Context, usr User) (role.Identity, error) {
	identity := role.Identity{
		UserID:       usr.ID,
		Role:         usr.Role,
		HasCommunity: usr.CommunityID.Valid,
	}

	assignments, err := svc.roleRepo.GetActiveAssignments(ctx, usr.ID)
	if err != nil {
		return role.Identity{}, errors.Wrap(err, "loading role assignments")
	}
	for _, a := range assignments {
		if a.RoleType == role.RoleAdmin {
			identity.IsAdmin = true
		}
		if identity.Role == "" {
			identity.Role = a.RoleType
		}
		if a.CommunityID.Valid {
			identity.HasCommunity = true
		}
	}

	if svc.conf.FlagEnabled(core.FlagSuperadminRBAC) {
		isSuper, err := svc.roleRepo.IsSuperadmin(ctx, usr.ID)
		if err != nil {
			// degrade to non-superadmin rather than failing the login
			svc.log.Warn("superadmin lookup failed", "err", err, "user", usr.ID)
		} else {
			identity.IsSuperadmin = isSuper
		}
	}
	return identity, nil
}

// RequestPasswordReset emails a signed reset link to the account, if it
// exists and is active. Callers should treat a missing account as success to
// avoid leaking which emails are registered.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	token, err := MakeToken(usr)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Restablecer contraseña",
		TemplateName: passwordResetTemplate,
		TemplateData: struct {
			FullName string
			UID      string
			Token    string
		}{usr.FullName(), EncodeUID(usr), token},
	})
	return nil
}

// ResetPassword validates the reset token and sets the new password.
func (svc *Service) ResetPassword(rp ResetUserPassword) (User, error) {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, errInvalidToken
	}
	usr, err := svc.GetByID(id)
	if err != nil {
		return User{}, err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}
