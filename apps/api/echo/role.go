package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

type roleApi struct {
	repo     role.AdminRepository
	cache    core.Cache
	logger   core.Logger
	validate *validator.Validate
}

func registerRoleAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := roleApi{
		repo:     opts.RoleRepo,
		cache:    opts.Cache,
		logger:   opts.Logger,
		validate: opts.Validate,
	}

	pg := g.Group("/permissions", jwt)
	pg.GET("", api.queryPermissions)
	pg.POST("/refetch", api.refetchPermissions)

	rg := g.Group("/roles", jwt)
	rg.GET("", api.queryRoles, adminMiddleware())
	rg.POST("/assignments", api.createAssignment, adminMiddleware())
	rg.PATCH("/assignments/:id", api.updateAssignment, adminMiddleware())

	// the role manager is superadmin territory
	rg.GET("/rules", api.queryRules, superadminMiddleware())
	rg.PUT("/rules", api.upsertRule, superadminMiddleware())
}

// Handlers

// queryPermissions returns the requester's resolved permission map.
func (api *roleApi) queryPermissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	perms, err := role.BuildMap(ctx.Request().Context(), api.repo, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building permission map")
	}
	return ctx.JSON(http.StatusOK, perms)
}

// refetchPermissions rebuilds the requester's permission map from the backing
// store and overwrites the persisted cache entry.
func (api *roleApi) refetchPermissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	perms, err := role.BuildMap(ctx.Request().Context(), api.repo, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building permission map")
	}
	if cerr := api.cache.Set(role.CacheKey(claims.Subject), perms); cerr != nil {
		api.logger.Warn("permission cache write failed", cerr)
	}
	return ctx.JSON(http.StatusOK, perms)
}

func (api *roleApi) queryRoles(ctx echo.Context) error {
	roles := make([]RoleResponse, 0, len(role.AllRoles))
	for _, r := range role.AllRoles {
		roles = append(roles, RoleResponse{Type: r, Name: role.RoleNames[r]})
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *roleApi) createAssignment(ctx echo.Context) error {
	var data NewAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.repo.CreateAssignment(ctx.Request().Context(), role.Assignment{
		UserID:       data.UserID,
		RoleType:     data.RoleType,
		SchoolID:     null.StringFromPtr(data.SchoolID),
		GenerationID: null.StringFromPtr(data.GenerationID),
		CommunityID:  null.StringFromPtr(data.CommunityID),
		IsActive:     true,
	})
	if err != nil {
		return errors.Wrap(err, "creating role assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *roleApi) updateAssignment(ctx echo.Context) error {
	var data UpdateAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignmentRequest")
	}
	if data.IsActive == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "is_active", Error: "this field is required"})
	}

	err := api.repo.SetAssignmentActive(ctx.Request().Context(), ctx.Param("id"), *data.IsActive)
	if err != nil {
		if errors.Cause(err) == role.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating role assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roleApi) queryRules(ctx echo.Context) error {
	rules, err := api.repo.QueryAllRules(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying permission rules")
	}
	if rules == nil {
		rules = []role.Rule{}
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *roleApi) upsertRule(ctx echo.Context) error {
	var data UpsertRuleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertRuleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rule := role.Rule{
		RoleType:      data.RoleType,
		PermissionKey: data.PermissionKey,
		Granted:       data.Granted,
		IsTest:        data.IsTest,
		Active:        true,
	}
	if err := api.repo.UpsertRule(ctx.Request().Context(), rule); err != nil {
		return errors.Wrap(err, "upserting permission rule")
	}
	return ctx.JSON(http.StatusOK, rule)
}

type (
	RoleResponse struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}

	NewAssignmentRequest struct {
		UserID       string  `json:"user_id" validate:"required"`
		RoleType     string  `json:"role_type" validate:"required,anyrole"`
		SchoolID     *string `json:"school_id"`
		GenerationID *string `json:"generation_id"`
		CommunityID  *string `json:"community_id"`
	}

	UpdateAssignmentRequest struct {
		IsActive *bool `json:"is_active"`
	}

	UpsertRuleRequest struct {
		RoleType      string `json:"role_type" validate:"required,anyrole"`
		PermissionKey string `json:"permission_key" validate:"required"`
		Granted       bool   `json:"granted"`
		IsTest        bool   `json:"is_test"`
	}
)

func (na *NewAssignmentRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

func (ur *UpsertRuleRequest) Validate(validate *validator.Validate) error {
	ur.PermissionKey = core.CleanString(ur.PermissionKey, true /* lower */)
	return validate.Struct(ur)
}
