package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnedigital/genera/core/role"
)

func Test_roleApi_queryPermissions(t *testing.T) {
	app, _ := setup(t)

	usr := createUser(t, "Carla", "Ruiz", "carla@test.mx", "s3cretPwd", true)
	grantRole(t, usr, role.RoleConsultor)
	grantPermission(t, role.RoleConsultor, role.PermViewReports, true)
	grantPermission(t, role.RoleConsultor, role.PermManageContracts, false)

	token := getToken(t, usr, role.Identity{Role: role.RoleConsultor})

	req, rec := newAuthRequest(http.MethodGet, "/v1/permissions", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var perms map[string]bool
	decodeBody(t, rec, &perms)
	assert.Equal(t, map[string]bool{
		role.PermViewReports:     true,
		role.PermManageContracts: false,
	}, perms)

	// refetch returns the same map and persists it
	req, rec = newAuthRequest(http.MethodPost, "/v1/permissions/refetch", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_roleApi_roleManager(t *testing.T) {
	app, _ := setup(t)

	admin := createUser(t, "Admin", "Root", "admin@test.mx", "s3cretPwd", true)
	adminToken := getToken(t, admin, role.Identity{IsAdmin: true})
	superToken := getToken(t, admin, role.Identity{IsAdmin: true, IsSuperadmin: true})

	t.Run("roles listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/roles", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var roles []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}
		decodeBody(t, rec, &roles)
		assert.Len(t, roles, len(role.AllRoles))
	})

	t.Run("rules are superadmin territory", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/roles/rules", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("upsert and list rules", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/roles/rules", superToken,
			[]byte(`{"role_type":"docente","permission_key":"view_reports","granted":true}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/roles/rules", superToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rules []role.Rule
		decodeBody(t, rec, &rules)
		if assert.Len(t, rules, 1) {
			assert.Equal(t, role.RoleDocente, rules[0].RoleType)
			assert.True(t, rules[0].Granted)
			assert.True(t, rules[0].Active)
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/roles/rules", superToken,
			[]byte(`{"role_type":"lol","permission_key":"view_reports"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_roleApi_assignments(t *testing.T) {
	app, _ := setup(t)

	admin := createUser(t, "Admin", "Root", "admin@test.mx", "s3cretPwd", true)
	usr := createUser(t, "Luis", "Perez", "luis@test.mx", "s3cretPwd", true)
	adminToken := getToken(t, admin, role.Identity{IsAdmin: true})

	req, rec := newAuthRequest(http.MethodPost, "/v1/roles/assignments", adminToken,
		[]byte(`{"user_id":"`+usr.ID+`","role_type":"consultor"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var a role.Assignment
	decodeBody(t, rec, &a)
	assert.Equal(t, role.RoleConsultor, a.RoleType)
	assert.True(t, a.IsActive)
	assert.NotEmpty(t, a.ID)

	// deactivate it
	req, rec = newAuthRequest(http.MethodPatch, "/v1/roles/assignments/"+a.ID, adminToken,
		[]byte(`{"is_active":false}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPatch, "/v1/roles/assignments/nope", adminToken,
		[]byte(`{"is_active":true}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
