package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/role"
)

func Test_feedbackApi_submitAndTriage(t *testing.T) {
	app, _ := setup(t)

	usr := createUser(t, "Ana", "Gomez", "ana@test.mx", "s3cretPwd", true)
	admin := createUser(t, "Admin", "Root", "admin@test.mx", "s3cretPwd", true)

	usrToken := getToken(t, usr, role.Identity{Role: role.RoleDocente})
	adminToken := getToken(t, admin, role.Identity{IsAdmin: true})

	// submit
	req, rec := newAuthRequest(http.MethodPost, "/v1/feedback", usrToken,
		[]byte(`{"category":"Bug","message":"La página no carga","page_context":"/dashboard","rating":2}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var fb feedback.Feedback
	decodeBody(t, rec, &fb)
	assert.Equal(t, "bug", fb.Category) // normalized
	assert.Equal(t, feedback.StatusNew, fb.Status)
	assert.Equal(t, usr.ID, fb.UserID)
	assert.Equal(t, "ana@test.mx", fb.UserEmail)

	// submitters cannot browse the queue
	req, rec = newAuthRequest(http.MethodGet, "/v1/feedback", usrToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// triage: list, move to in_review, comment
	req, rec = newAuthRequest(http.MethodGet, "/v1/feedback?category=bug", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fbs []feedback.Feedback
	decodeBody(t, rec, &fbs)
	assert.Len(t, fbs, 1)

	req, rec = newAuthRequest(http.MethodPatch, "/v1/feedback/"+fb.ID+"/status", adminToken,
		[]byte(`{"status":"in_review"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated feedback.Feedback
	decodeBody(t, rec, &updated)
	assert.Equal(t, feedback.StatusInReview, updated.Status)

	req, rec = newAuthRequest(http.MethodPost, "/v1/feedback/"+fb.ID+"/comments", adminToken,
		[]byte(`{"comment":"Reproducido, en curso"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/feedback/"+fb.ID+"/activity", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var acts []feedback.Activity
	decodeBody(t, rec, &acts)
	if assert.Len(t, acts, 2) {
		assert.Equal(t, feedback.ActivityStatusChange, acts[0].Kind)
		assert.Equal(t, feedback.ActivityComment, acts[1].Kind)
	}
}

func Test_feedbackApi_validation(t *testing.T) {
	app, _ := setup(t)

	usr := createUser(t, "Ana", "Gomez", "ana@test.mx", "s3cretPwd", true)
	usrToken := getToken(t, usr, role.Identity{Role: role.RoleDocente})
	admin := createUser(t, "Admin", "Root", "admin@test.mx", "s3cretPwd", true)
	adminToken := getToken(t, admin, role.Identity{IsAdmin: true})

	tests := []struct {
		name string
		body []byte
	}{
		{name: "missing message", body: []byte(`{"category":"bug"}`)},
		{name: "unknown category", body: []byte(`{"category":"meh","message":"hola"}`)},
		{name: "rating out of range", body: []byte(`{"category":"idea","message":"hola","rating":9}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/feedback", usrToken, tt.body)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/feedback", usrToken,
			[]byte(`{"category":"bug","message":"hola"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var fb feedback.Feedback
		decodeBody(t, rec, &fb)

		req, rec = newAuthRequest(http.MethodPatch, "/v1/feedback/"+fb.ID+"/status", adminToken,
			[]byte(`{"status":"lol"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing feedback", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/feedback/nope", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
