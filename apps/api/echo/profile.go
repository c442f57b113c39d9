package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/profile"
)

type profileApi struct {
	svc      profile.ServiceInterface
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc profile.ServiceInterface, validate *validator.Validate) {
	api := profileApi{svc: svc, validate: validate}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc profile.ServiceInterface, validate *validator.Validate) {
	api := profileApi{svc: svc, validate: validate}

	g.GET("/leaderboard", api.leaderboard, jwt)

	mg := g.Group("/profiles/me", jwt)
	mg.GET("", api.retrieve)
	mg.PUT("", api.update)
	mg.PUT("/push-token", api.registerPushToken)
	mg.DELETE("/push-token", api.forgetPushToken)
	mg.POST("/study-sessions", api.logStudySession)
}

// Handlers

func (api *profileApi) register(ctx echo.Context) error {
	var data profile.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	prof, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering profile")
	}
	return ctx.JSON(http.StatusCreated, prof)
}

func (api *profileApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *profileApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) update(ctx echo.Context) error {
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data profile.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(prof, api.validate); err != nil {
		return err
	}

	prof, err = api.svc.Update(ctx.Request().Context(), prof.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) registerPushToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data profile.RegisterToken
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterToken")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.RegisterPushToken(ctx.Request().Context(), claims.Subject, data.Token); err != nil {
		return errors.Wrap(err, "registering push token")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *profileApi) forgetPushToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.ForgetPushToken(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "forgetting push token")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *profileApi) logStudySession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data profile.StudySession
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudySession")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.svc.LogStudySession(ctx.Request().Context(), claims.Subject, data.Minutes)
	if err != nil {
		return errors.Wrap(err, "logging study session")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) leaderboard(ctx echo.Context) error {
	entries, err := api.svc.Leaderboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if entries == nil {
		entries = []profile.LeaderboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
