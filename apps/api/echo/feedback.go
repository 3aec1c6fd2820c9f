package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/user"
)

type feedbackApi struct {
	svc      *feedback.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := feedbackApi{
		svc:      opts.FeedbackSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	fg := g.Group("/feedback", jwt)
	fg.POST("", api.create)

	// triage endpoints
	ag := fg.Group("", adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/activity", api.queryActivity)
	ag.PATCH("/:id/status", api.updateStatus)
	ag.POST("/:id/comments", api.addComment)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *feedbackApi) create(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}

	// the submitter snapshot comes from the session, never the payload
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	data.UserID = usr.ID
	data.UserName = usr.FullName()
	data.UserEmail = usr.Email

	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	fb, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	filter := new(feedback.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []feedback.Feedback{})
	}

	fbs, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []feedback.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *feedbackApi) retrieve(ctx echo.Context) error {
	fb, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == feedback.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding feedback by ID")
	}
	return ctx.JSON(http.StatusOK, fb)
}

func (api *feedbackApi) queryActivity(ctx echo.Context) error {
	acts, err := api.svc.GetActivities(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == feedback.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying feedback activity")
	}
	if acts == nil {
		acts = []feedback.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *feedbackApi) updateStatus(ctx echo.Context) error {
	var data UpdateStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatusRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fb, err := api.svc.UpdateStatus(ctx.Param("id"), data.Status, claims.Subject)
	if err != nil {
		switch errors.Cause(err) {
		case feedback.ErrNotFound:
			return errHttpNotFound
		case feedback.ErrInvalidStatus:
			return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status"})
		}
		return errors.Wrap(err, "updating feedback status")
	}
	return ctx.JSON(http.StatusOK, fb)
}

func (api *feedbackApi) addComment(ctx echo.Context) error {
	var data NewCommentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCommentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	act, err := api.svc.AddComment(ctx.Param("id"), claims.Subject, data.Comment)
	if err != nil {
		if errors.Cause(err) == feedback.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding feedback comment")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *feedbackApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		if errors.Cause(err) == feedback.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting feedback")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	UpdateStatusRequest struct {
		Status string `json:"status"`
	}

	NewCommentRequest struct {
		Comment string `json:"comment" validate:"required,max=2000"`
	}
)

func (nc *NewCommentRequest) Validate(validate *validator.Validate) error {
	nc.Comment = core.CleanString(nc.Comment)
	return validate.Struct(nc)
}
