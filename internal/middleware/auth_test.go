package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

type mockUserRepo struct {
	mock.Mock
	repository.UserRepository
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTokens() *service.TokenService {
	return service.NewTokenService("access", "refresh", time.Hour, 24*time.Hour)
}

func seedUser(t *testing.T, users repository.UserRepository, role string) *model.User {
	t.Helper()
	u := &model.User{FullName: "Test", Email: role + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func runRequest(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c), "role": Role(c)})
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestJWTAuth(t *testing.T) {
	store := repository.NewMemoryStore()
	tokens := newTokens()
	user := seedUser(t, store.Users, model.RoleUser)
	valid, err := tokens.IssueAccessToken(user.ID, user.Role)
	require.NoError(t, err)
	ghost, err := tokens.IssueAccessToken("missing-user", model.RoleAdmin)
	require.NoError(t, err)

	guard := JWTAuth(tokens, store.Users, time.Second, zap.NewNop())

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"no header", "", http.StatusUnauthorized, "Not authorized, no token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Not authorized, no token"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "Not authorized, token failed"},
		{"unknown subject", "Bearer " + ghost.Token, http.StatusUnauthorized, "Not authorized, user not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := runRequest(t, []echo.MiddlewareFunc{guard}, tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decodeMessage(t, rec))
		})
	}

	t.Run("valid token", func(t *testing.T) {
		rec, c := runRequest(t, []echo.MiddlewareFunc{guard}, "Bearer "+valid.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, UserID(c))
		assert.Equal(t, model.RoleUser, Role(c))
		require.NotNil(t, CurrentUser(c))
		assert.Equal(t, user.Email, CurrentUser(c).Email)
	})
}

func TestJWTAuthStoreFailure(t *testing.T) {
	tokens := newTokens()
	tok, err := tokens.IssueAccessToken("u1", model.RoleUser)
	require.NoError(t, err)

	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "u1").Return(nil, errors.New("connection reset"))

	rec, _ := runRequest(t, []echo.MiddlewareFunc{JWTAuth(tokens, users, time.Second, zap.NewNop())}, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	users.AssertExpectations(t)
}

func TestRequireRole(t *testing.T) {
	store := repository.NewMemoryStore()
	tokens := newTokens()
	admin := seedUser(t, store.Users, model.RoleAdmin)
	user := seedUser(t, store.Users, model.RoleUser)
	adminTok, _ := tokens.IssueAccessToken(admin.ID, admin.Role)
	userTok, _ := tokens.IssueAccessToken(user.ID, user.Role)

	chain := []echo.MiddlewareFunc{
		JWTAuth(tokens, store.Users, time.Second, zap.NewNop()),
		RequireRole(model.RoleAdmin),
	}

	rec, _ := runRequest(t, chain, "Bearer "+adminTok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = runRequest(t, chain, "Bearer "+userTok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized, insufficient role", decodeMessage(t, rec))

	rec, _ = runRequest(t, chain, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWithoutGuard(t *testing.T) {
	rec, _ := runRequest(t, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardUsesStoredRole(t *testing.T) {
	store := repository.NewMemoryStore()
	tokens := newTokens()
	user := seedUser(t, store.Users, model.RoleUser)
	// token claims admin, store says user
	forged, err := tokens.IssueAccessToken(user.ID, model.RoleAdmin)
	require.NoError(t, err)

	chain := []echo.MiddlewareFunc{
		JWTAuth(tokens, store.Users, time.Second, zap.NewNop()),
		RequireRole(model.RoleAdmin),
	}
	rec, _ := runRequest(t, chain, "Bearer "+forged.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
