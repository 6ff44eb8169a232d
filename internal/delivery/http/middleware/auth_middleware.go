package middleware

import (
	"strings"

	deliverycontext "purse/internal/delivery/context"
	"purse/internal/delivery/http/response"
	domainerrors "purse/internal/domain/errors"
	"purse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthMiddleware authenticates requests against the session store. Unlike a
// stateless JWT check, a revoked or expired session is rejected immediately.
type AuthMiddleware struct {
	auth usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(auth usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate validates the bearer access token and stores the resolved
// user and session on the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format, must be Bearer token")
		}

		user, session, err := m.auth.ValidateAccessToken(c.Request().Context(), tokenString)
		if err != nil {
			var appErr domainerrors.AppError
			if errors.As(err, &appErr) {
				return response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())
			}

			return errors.WithStack(err)
		}

		deliverycontext.SetAuth(c, user, session)

		return next(c)
	}
}

// RequireConfirmedEmail rejects authenticated requests whose user has not
// confirmed their email address. Must run AFTER Authenticate.
func (m *AuthMiddleware) RequireConfirmedEmail(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := deliverycontext.GetAuthUser(c)
		if user == nil {
			return response.Unauthorized(c, "UNAUTHENTICATED", "Authentication required")
		}
		if !user.IsEmailConfirmed {
			return response.Forbidden(c, "EMAIL_NOT_CONFIRMED", "Email address must be confirmed")
		}

		return next(c)
	}
}
