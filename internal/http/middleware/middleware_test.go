package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserIdentity(t *testing.T) {
	r := newEngine(UserIdentity())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, " user-7 ")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", w.Body.String())
}

func TestAdminOnly(t *testing.T) {
	disabled := newEngine(AdminOnly(""))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminKeyHeader, "")
	assert.Equal(t, http.StatusForbidden, serve(disabled, req).Code)

	r := newEngine(AdminOnly("secret"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminKeyHeader, "secret")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS())
	r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), UserIDHeader)
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	r := newEngine(ErrorHandler(zap.NewNop()), SecurityHeaders())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
