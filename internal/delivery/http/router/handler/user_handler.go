package handler

import (
	"net/http"
	"strconv"

	deliverycontext "purse/internal/delivery/context"
	"purse/internal/delivery/http/response"
	"purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-facing handlers.
type UserHandler struct {
	auth    usecase.AuthUsecase
	account usecase.AccountUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(auth usecase.AuthUsecase, account usecase.AccountUsecase) *UserHandler {
	return &UserHandler{auth: auth, account: account}
}

type updateMetadataRequest struct {
	Metadata map[string]any `json:"metadata" validate:"required"`
}

type updatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type listUsersResponse struct {
	Users  []userResponse `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type activeSessionResponse struct {
	ID           string `json:"id"`
	ExpiresAt    string `json:"expires_at"`
	LastAccessed string `json:"last_accessed"`
	CreatedAt    string `json:"created_at"`
	Current      bool   `json:"current"`
}

// GetProfile returns the authenticated user.
func (h *UserHandler) GetProfile(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "")
}

// UpdateMetadata shallow-merges the submitted metadata into the user's.
func (h *UserHandler) UpdateMetadata(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	var req updateMetadataRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid metadata input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.auth.UpdateUserMetadata(c.Request().Context(), user.ID, req.Metadata)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(updated), "Metadata updated")
}

// UpdatePassword replaces the authenticated user's password. Every session
// is revoked in the process, so the caller must sign in again.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.account.UpdatePassword(c.Request().Context(), user.ID, req.Password); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password updated, please sign in again")
}

// DeleteAccount removes the authenticated user's account, sessions and
// provider credentials.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	if err := h.account.CloseAccount(c.Request().Context(), user.ID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account deleted")
}

// ListSessions returns the authenticated user's active sessions. Tokens are
// never echoed back; only the session the caller authenticated with is
// flagged as current.
func (h *UserHandler) ListSessions(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	current := deliverycontext.GetAuthSession(c)
	if user == nil || current == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	sessions, err := h.auth.GetActiveSessions(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]activeSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, activeSessionResponse{
			ID:           session.ID.String(),
			ExpiresAt:    session.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			LastAccessed: session.LastAccessed.UTC().Format("2006-01-02T15:04:05Z07:00"),
			CreatedAt:    session.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Current:      session.ID == current.ID,
		})
	}

	return response.Success(c, http.StatusOK, out, "")
}

// RevokeSession invalidates one of the authenticated user's sessions by ID.
func (h *UserHandler) RevokeSession(c echo.Context) error {
	user := deliverycontext.GetAuthUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_SESSION_ID", "Session ID must be a UUID")
	}

	// Ownership is checked on the raw record: revoking must work on expired
	// or already-deactivated sessions too, and must not bump last-accessed.
	session, err := h.auth.GetSessionInfo(c.Request().Context(), sessionID)
	if err != nil {
		return errors.WithStack(err)
	}
	if session == nil {
		// Already gone; revoking stays idempotent.
		return response.Success(c, http.StatusOK, nil, "Session revoked")
	}
	if session.UserID != user.ID {
		return response.Forbidden(c, "FORBIDDEN", "Session belongs to another user")
	}

	if err := h.account.SignOut(c.Request().Context(), sessionID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Session revoked")
}

// ListUsers returns a page of registered users with the total count. Serves
// the account directory view; requires a confirmed email.
func (h *UserHandler) ListUsers(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return response.BadRequest(c, "INVALID_LIMIT", "Limit must be a positive integer")
		}
		limit = parsed
	}

	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return response.BadRequest(c, "INVALID_OFFSET", "Offset must be a non-negative integer")
		}
		offset = parsed
	}

	users, total, err := h.auth.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	out := listUsersResponse{
		Users:  make([]userResponse, 0, len(users)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, user := range users {
		out.Users = append(out.Users, toUserResponse(user))
	}

	return response.Success(c, http.StatusOK, out, "")
}
