package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core/notification"
)

type notificationApi struct {
	svc      *notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := notificationApi{
		svc:      opts.NotificationSvc,
		validate: opts.Validate,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("", api.create, adminMiddleware())
	ng.POST("/:id/read", api.markRead)
	ng.POST("/read-all", api.markAllRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.svc.QueryByUser(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	count, err := api.svc.UnreadCount(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	n, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	if err := api.svc.MarkRead(ctx.Param("id")); err != nil {
		if errors.Cause(err) == notification.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkAllRead(claims.Subject); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
