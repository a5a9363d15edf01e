package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/user"
)

type userApi struct {
	svc user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	api := userApi{svc: svc}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/verify", api.verify)
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.retrieveMe)
	ag.PUT("/me/avatar", api.updateAvatar)

	g.GET("/rankings", api.queryRankings, jwt)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	if _, err := api.svc.Register(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "registering user")
	}

	return ctx.JSON(http.StatusCreated, SuccessResponse{
		Success: "確認メールを送信しました。メール内のリンクから登録を完了してください。",
	})
}

func (api *userApi) verify(ctx echo.Context) error {
	var data VerifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Verify(ctx.Request().Context(), data.Token)
	if err != nil {
		return errors.Wrap(err, "verifying email")
	}

	// log the fresh account in right away
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) retrieveMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateAvatar(ctx echo.Context) error {
	var data AvatarRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AvatarRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	usr, err := api.svc.SetAvatar(ctx.Request().Context(), claims.Subject, data.Avatar)
	if err != nil {
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryRankings(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	scope := core.CleanString(ctx.QueryParam("scope"), true /* lower */)
	if scope == "" {
		scope = user.ScopeNational
	}
	universityID := core.CleanString(ctx.QueryParam("university"), true /* lower */)
	if scope == user.ScopeUniversity && universityID == "" {
		universityID = claims.UniversityID
	}

	entries, err := api.svc.Rankings(ctx.Request().Context(), scope, universityID)
	if err != nil {
		return errors.Wrap(err, "querying rankings")
	}
	if entries == nil {
		entries = []user.RankingEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type (
	VerifyRequest struct {
		Token string `json:"token" validate:"required"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	AvatarRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (vr *VerifyRequest) Validate() error {
	vr.Token = core.CleanString(vr.Token)
	return core.Validate.Struct(vr)
}

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

func (ar *AvatarRequest) Validate() error {
	ar.Avatar = core.CleanString(ar.Avatar)
	return core.Validate.Struct(ar)
}
