package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	deliverycontext "purse/internal/delivery/context"
	"purse/internal/domain/entity"
	mockUsecase "purse/internal/mocks/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRevokeContext(t *testing.T, user *entity.User, current *entity.Session, targetID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, "/user/sessions/"+targetID, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(targetID)
	deliverycontext.SetAuth(c, user, current)

	return c, rec
}

func TestUserHandler_RevokeSession_ExpiredOwnSession(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	user := entity.NewUser("dev@example.com", nil)
	current := entity.NewSession(user.ID, "access", "refresh", time.Hour)

	// The target session already expired; revoking it must still work and
	// must not go through the validating lookup.
	target := entity.NewSession(user.ID, "old-access", "old-refresh", time.Hour)
	target.ExpiresAt = time.Now().Add(-time.Minute)
	before := target.LastAccessed

	auth.On("GetSessionInfo", mock.Anything, target.ID).Return(target, nil)
	account.On("SignOut", mock.Anything, target.ID).Return(nil)

	c, rec := newRevokeContext(t, user, current, target.ID.String())

	require.NoError(t, h.RevokeSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before, target.LastAccessed)
	auth.AssertNotCalled(t, "GetUserBySession", mock.Anything, mock.Anything)
}

func TestUserHandler_RevokeSession_AbsentSessionIsIdempotent(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	user := entity.NewUser("dev@example.com", nil)
	current := entity.NewSession(user.ID, "access", "refresh", time.Hour)
	targetID := uuid.New()

	auth.On("GetSessionInfo", mock.Anything, targetID).Return(nil, nil)

	c, rec := newRevokeContext(t, user, current, targetID.String())

	require.NoError(t, h.RevokeSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	account.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)
}

func TestUserHandler_RevokeSession_ForeignSessionForbidden(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	user := entity.NewUser("dev@example.com", nil)
	current := entity.NewSession(user.ID, "access", "refresh", time.Hour)
	foreign := entity.NewSession(uuid.New(), "other-access", "other-refresh", time.Hour)

	auth.On("GetSessionInfo", mock.Anything, foreign.ID).Return(foreign, nil)

	c, rec := newRevokeContext(t, user, current, foreign.ID.String())

	require.NoError(t, h.RevokeSession(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	account.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)
}

func TestUserHandler_RevokeSession_MalformedID(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	user := entity.NewUser("dev@example.com", nil)
	current := entity.NewSession(user.ID, "access", "refresh", time.Hour)

	c, rec := newRevokeContext(t, user, current, "not-a-uuid")

	require.NoError(t, h.RevokeSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_ListUsers(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	page := []*entity.User{
		entity.NewUser("a@example.com", nil),
		entity.NewUser("b@example.com", nil),
	}
	auth.On("ListUsers", mock.Anything, 2, 4).Return(page, int64(9), nil)

	req := httptest.NewRequest(http.MethodGet, "/users?limit=2&offset=4", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":9`)
	assert.Contains(t, rec.Body.String(), "a@example.com")
}

func TestUserHandler_ListUsers_RejectsBadPaging(t *testing.T) {
	auth := mockUsecase.NewMockAuthUsecase(t)
	account := mockUsecase.NewMockAccountUsecase(t)
	h := NewUserHandler(auth, account)

	for _, query := range []string{"limit=0", "limit=abc", "offset=-1"} {
		req := httptest.NewRequest(http.MethodGet, "/users?"+query, nil)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)

		require.NoError(t, h.ListUsers(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	auth.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything, mock.Anything)
}
