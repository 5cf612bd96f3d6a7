package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

type authApi struct {
	svc      user.Service
	auth     *authenticator
	validate *validator.Validate
	logger   core.Logger
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := authApi{
		svc:      s.deps.UserSvc,
		auth:     s.auth,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	ag.POST("/logout", api.logout, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.GET("/me", api.me, jwt)
	ag.PUT("/password", api.changePassword, jwt)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, p, err := api.auth.login(ctx.Request().Context(), data.Role, data.Identifier, data.Password)
	if err != nil {
		switch errors.Cause(err).(type) {
		case *core.ValidationError:
			return err
		}
		if errors.Cause(err) == user.ErrAccountDeactivated {
			return errAccountDeactivated
		}
		api.logger.Error("authenticating", errors.Wrap(err, "authenticating"))
		return errDatabase
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: p})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err := api.auth.revokeToken(ctx.Request().Context(), claims); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	token, err := api.auth.refresh(ctx.Request().Context(), claims)
	if err != nil {
		if errors.Cause(err) == user.ErrAccountDeactivated {
			return errAccountDeactivated
		}
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: claims.Principal()})
}

func (api *authApi) me(ctx echo.Context) error {
	profile, err := api.svc.Profile(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	p := getContextPrincipal(ctx)

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(api.validate, p); err != nil {
		return err
	}

	if err := api.svc.ChangePassword(ctx.Request().Context(), p, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password updated successfully."})
}

type (
	LoginRequest struct {
		Role       string `json:"role" validate:"required"`
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string         `json:"token"`
		User  user.Principal `json:"user"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Role = core.CleanString(lr.Role, true /* lower */)
	lr.Identifier = core.CleanString(lr.Identifier)
	return validate.Struct(lr)
}
