package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/navigation"
	"github.com/fnedigital/genera/core/role"
)

type navigationApi struct {
	repo   role.Repository
	logger core.Logger
}

func registerNavigationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := navigationApi{
		repo:   opts.RoleRepo,
		logger: opts.Logger,
	}

	g.GET("/navigation", api.menu, jwt)
}

// menu returns the navigation items visible to the requester plus the
// expansion state for the current route (`?path=`).
func (api *navigationApi) menu(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	perms, err := role.BuildMap(ctx.Request().Context(), api.repo, claims.Subject)
	if err != nil {
		// fail closed: permission-gated items stay hidden
		api.logger.Error("resolving permissions", errors.Wrap(err, "building permission map"))
		perms = nil
	}

	view := navigation.View{
		Identity: claims.Identity(),
		Perms:    role.Resolved{Perms: perms},
		Flags:    core.Conf,
		// the token carries both checks resolved
		SuperadminChecked: true,
		CommunityChecked:  true,
	}

	items := navigation.Filter(navigation.DefaultMenu(), view)
	expanded := navigation.ExpandedFor(items, ctx.QueryParam("path"))

	return ctx.JSON(http.StatusOK, MenuResponse{Items: items, Expanded: expanded})
}

type MenuResponse struct {
	Items    []navigation.Item        `json:"items"`
	Expanded navigation.ExpandedState `json:"expanded"`
}
