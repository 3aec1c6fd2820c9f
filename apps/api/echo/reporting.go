package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/role"
)

type reportingApi struct {
	svc *reporting.Service
}

func registerReportingAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := reportingApi{svc: opts.ReportingSvc}

	rg := g.Group("/reports", jwt)
	rg.GET("/progress", api.progress, permissionMiddleware(opts.RoleRepo, opts.Logger, false, role.PermViewReports))
	rg.POST("/cache-invalidate", api.invalidateCache, adminMiddleware())
}

// progress returns the progress records the requester's role scope allows,
// optionally filtered by `?status=` and `?school=`.
func (api *reportingApi) progress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter reporting.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	filter.School = core.CleanString(filter.School)

	records, err := api.svc.GetUserProgress(ctx.Request().Context(), claims.Identity(), filter)
	if err != nil {
		if errors.Cause(err) == reporting.ErrReportingDenied {
			return errHttpForbidden
		}
		// *reporting.ScopeError is mapped by the HTTP error handler
		return errors.Wrap(err, "aggregating progress")
	}
	if records == nil {
		records = []reporting.ProgressRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// invalidateCache drops all cached report results, for use after bulk data
// imports.
func (api *reportingApi) invalidateCache(ctx echo.Context) error {
	api.svc.InvalidateCache()
	return ctx.NoContent(http.StatusNoContent)
}
