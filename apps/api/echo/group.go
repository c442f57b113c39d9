package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studyhuddle/backend/core/group"
	"github.com/studyhuddle/backend/core/profile"
)

const defaultMessageLimit = 50

type groupApi struct {
	svc        group.ServiceInterface
	profileSvc profile.ServiceInterface
	validate   *validator.Validate
}

func registerGroupAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc group.ServiceInterface,
	profileSvc profile.ServiceInterface,
	validate *validator.Validate,
) {
	api := groupApi{svc: svc, profileSvc: profileSvc, validate: validate}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.create)
	gg.GET("", api.queryMine)
	gg.POST("/:id/join", api.join)
	gg.POST("/:id/leave", api.leave)
	gg.GET("/:id/messages", api.queryMessages)
	gg.POST("/:id/messages", api.postMessage)

	mg := g.Group("/materials", jwt)
	mg.POST("", api.saveMaterial)
	mg.GET("", api.queryMaterials)
	mg.DELETE("/:id", api.destroyMaterial)
}

// registerNotificationAPI exposes the chat fan-out relay on its legacy
// unauthenticated path for clients that talk to the store directly.
func registerNotificationAPI(g *echo.Group, svc group.ServiceInterface, validate *validator.Validate) {
	api := groupApi{svc: svc, validate: validate}
	g.POST("/notifications/chat", api.notifyChat)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data group.NewStudyGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudyGroup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating study group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	groups, err := api.svc.QueryMine(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying study groups")
	}
	if groups == nil {
		groups = []group.StudyGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) join(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Join(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) leave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Leave(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) queryMessages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	limit := defaultMessageLimit
	if l, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}

	msgs, err := api.svc.QueryMessages(ctx.Request().Context(), ctx.Param("id"), claims.Subject, limit)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []group.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *groupApi) postMessage(ctx echo.Context) error {
	prof, err := getContextProfile(ctx, api.profileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data group.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.PostMessage(ctx.Request().Context(), ctx.Param("id"), prof.ID, prof.FullName, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *groupApi) notifyChat(ctx echo.Context) error {
	var data group.ChatNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.NotifyChat(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending chat notification")
	}
	if res.SuccessCount == 0 && res.FailureCount == 0 {
		return ctx.JSON(http.StatusOK, echo.Map{"message": "No other users to notify."})
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"sent":    res.SuccessCount,
		"failed":  res.FailureCount,
	})
}

func (api *groupApi) saveMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data group.NewMaterial
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.SaveMaterial(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "saving material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *groupApi) queryMaterials(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	mats, err := api.svc.QueryMaterials(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if mats == nil {
		mats = []group.SavedMaterial{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *groupApi) destroyMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteMaterial(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
