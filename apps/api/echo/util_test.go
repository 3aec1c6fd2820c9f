package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	. "github.com/fnedigital/genera/apps/api/echo"
	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/notification"
	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/role"
	"github.com/fnedigital/genera/core/user"
	emailsvc "github.com/fnedigital/genera/services/email"
	dummydb "github.com/fnedigital/genera/storage/database/dummy"
	"github.com/fnedigital/genera/storage/kvstore"
)

var (
	usrRepo  user.Repository
	roleRepo role.AdminRepository
)

func setup(t *testing.T) (Server, *dummydb.DB) {
	t.Helper()
	core.Conf = core.NewTestConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	roleRepo = dummydb.NewRoleRepository(db)

	cache := kvstore.NewMemoryCache()
	logger := core.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock()

	usrSvc := user.NewService(usrRepo, roleRepo, mailSvc, logger, core.Conf)
	reportingSvc := reporting.NewService(dummydb.NewReportingRepository(db), logger, core.Conf)
	feedbackSvc := feedback.NewService(
		dummydb.NewFeedbackRepository(db), mailSvc, logger,
		func() []mail.Address { return []mail.Address{core.Conf.AdminEmail()} },
	)
	notificationSvc := notification.NewService(dummydb.NewNotificationRepository(db), cache, logger)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate)

	app := NewServer(
		&Options{
			DisableReqLogs:  true,
			UserSvc:         usrSvc,
			RoleRepo:        roleRepo,
			ReportingSvc:    reportingSvc,
			FeedbackSvc:     feedbackSvc,
			NotificationSvc: notificationSvc,
			Cache:           cache,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			Shutdown:        func() {},
		},
	)
	return app, db
}

func createUser(t *testing.T, first, last, email, pwd string, active bool) user.User {
	t.Helper()
	usr := user.User{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func grantRole(t *testing.T, usr user.User, roleType string) {
	t.Helper()
	if _, err := roleRepo.CreateAssignment(context.Background(), role.Assignment{
		UserID:   usr.ID,
		RoleType: roleType,
		IsActive: true,
	}); err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
}

func grantPermission(t *testing.T, roleType, key string, granted bool) {
	t.Helper()
	if err := roleRepo.UpsertRule(context.Background(), role.Rule{
		RoleType:      roleType,
		PermissionKey: key,
		Granted:       granted,
		Active:        true,
	}); err != nil {
		t.Fatalf("UpsertRule() failed: %v", err)
	}
}

func getToken(t *testing.T, usr user.User, ident role.Identity) string {
	t.Helper()
	ident.UserID = usr.ID
	token, err := GenerateToken(GetUserClaims(usr, ident))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}
