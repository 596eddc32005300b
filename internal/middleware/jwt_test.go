package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/utils"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, token string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	token, err := utils.NewAccessToken(testSecret, 42, model.RoleOwner, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	rec := doRequest(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	token, err := utils.NewAccessToken("other-secret", 42, model.RoleOwner, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	token, err := utils.NewAccessToken(testSecret, 42, model.RoleOwner, -time.Minute)
	require.NoError(t, err)

	rec := doRequest(t, token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	token, err := utils.NewAccessToken(testSecret, 7, model.RoleSociety, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, token, JWTAuth(testSecret), RequireRole(model.RoleSociety))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	token, err := utils.NewAccessToken(testSecret, 7, model.RoleSociety, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, token, JWTAuth(testSecret), RequireRole(model.RoleOwner))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
