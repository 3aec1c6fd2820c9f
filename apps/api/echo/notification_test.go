package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core/notification"
	"github.com/fnedigital/genera/core/role"
)

func Test_notificationApi_lifecycle(t *testing.T) {
	app, _ := setup(t)

	usr := createUser(t, "Ana", "Gomez", "ana@test.mx", "s3cretPwd", true)
	admin := createUser(t, "Admin", "Root", "admin@test.mx", "s3cretPwd", true)

	usrToken := getToken(t, usr, role.Identity{Role: role.RoleDocente})
	adminToken := getToken(t, admin, role.Identity{IsAdmin: true})

	// only admins publish notifications
	body := []byte(fmt.Sprintf(`{"user_id":%q,"type":"course","title":"Nuevo curso disponible"}`, usr.ID))
	req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", usrToken, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var created notification.Notification
	for i := 0; i < 2; i++ {
		req, rec = newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeBody(t, rec, &created)
	}

	// unread count
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", usrToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &count)
	assert.Equal(t, 2, count.Count)

	// mark one read
	req, rec = newAuthRequest(http.MethodPost, "/v1/notifications/"+created.ID+"/read", usrToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", usrToken)
	app.ServeHTTP(rec, req)
	decodeBody(t, rec, &count)
	assert.Equal(t, 1, count.Count)

	// unread first in the listing
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", usrToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var notifs []notification.Notification
	decodeBody(t, rec, &notifs)
	if assert.Len(t, notifs, 2) {
		assert.False(t, notifs[0].Read)
		assert.True(t, notifs[1].Read)
	}

	// mark all read
	req, rec = newAuthRequest(http.MethodPost, "/v1/notifications/read-all", usrToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", usrToken)
	app.ServeHTTP(rec, req)
	decodeBody(t, rec, &count)
	assert.Equal(t, 0, count.Count)

	t.Run("missing notification", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/nope/read", usrToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"user_id":%q,"type":"lol","title":"x"}`, usr.ID))
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
