// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"

	deliverycontext "purse/internal/delivery/context"
	"purse/internal/delivery/http/response"
	"purse/internal/domain/entity"
	"purse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	account usecase.AccountUsecase
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(account usecase.AccountUsecase) *AuthHandler {
	return &AuthHandler{account: account}
}

type signUpRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Metadata map[string]any `json:"metadata"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// userResponse hides internal fields from API consumers.
type userResponse struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	IsEmailConfirmed bool           `json:"is_email_confirmed"`
	LastLogin        string         `json:"last_login,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

type sessionResponse struct {
	ID           string `json:"id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

type signInResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

func toUserResponse(user *entity.User) userResponse {
	resp := userResponse{
		ID:               user.ID.String(),
		Email:            user.Email,
		Metadata:         user.Metadata,
		IsEmailConfirmed: user.IsEmailConfirmed,
		CreatedAt:        user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.LastLogin != nil {
		resp.LastLogin = user.LastLogin.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	return resp
}

func toSessionResponse(session *entity.Session) sessionResponse {
	return sessionResponse{
		ID:           session.ID.String(),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// SignUp handles the account registration request.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign-up input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.account.SignUp(c.Request().Context(), &usecase.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Metadata: req.Metadata,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(user), "User registered successfully")
}

// SignIn handles the login request.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign-in input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.account.SignIn(c.Request().Context(), &usecase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, signInResponse{
		User:    toUserResponse(out.User),
		Session: toSessionResponse(out.Session),
	}, "Login successful")
}

// Refresh handles the access token refresh request.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.account.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toSessionResponse(session), "Token refreshed successfully")
}

// ResetPassword starts a password reset. The response is the same whether or
// not the email is registered.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.account.ResetPassword(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "If the email is registered, a password reset has been initiated")
}

// SignOut invalidates the session the request was authenticated with.
func (h *AuthHandler) SignOut(c echo.Context) error {
	session := deliverycontext.GetAuthSession(c)
	if session == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	if err := h.account.SignOut(c.Request().Context(), session.ID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logged out successfully")
}

// SignOutEverywhere invalidates every session of the authenticated user.
func (h *AuthHandler) SignOutEverywhere(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	count, err := h.account.SignOutEverywhere(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int64{"revoked_sessions": count}, "Logged out everywhere")
}

// ConfirmEmail marks the authenticated user's email address as confirmed.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	confirmed, err := h.account.ConfirmEmail(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(confirmed), "Email confirmed")
}
