package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	return s.claims, s.err
}

type recordedRequest struct {
	method string
	path   string
	status int
}

type stubMetrics struct {
	requests []recordedRequest
}

func (s *stubMetrics) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	s.requests = append(s.requests, recordedRequest{method: method, path: path, status: status})
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin}}
	r := gin.New()
	r.GET("/secure", JWT(validator), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})

	rec := serve(r, http.MethodGet, "/secure", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodGet, "/secure", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodGet, "/secure", "Bearer abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
	assert.Equal(t, "abc", validator.token)

	validator.err = appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
	rec = serve(r, http.MethodGet, "/secure", "Bearer abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRBAC(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		status int
	}{
		{"missing claims", nil, "/students/s-1", http.StatusUnauthorized},
		{"allowed role", &models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin}, "/students/s-1", http.StatusOK},
		{"self", &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}, "/students/s-1", http.StatusOK},
		{"other student", &models.JWTClaims{UserID: "s-2", Role: models.RoleStudent}, "/students/s-1", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/students/:id", withClaims(tc.claims), RBAC(string(models.RoleAdmin), "SELF"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			rec := serve(r, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.PUT("/grades", withClaims(&models.JWTClaims{UserID: "l-1", Role: models.RoleLecturer}),
		RequireRoles(models.RoleAdmin, models.RoleLecturer), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.DELETE("/grades", withClaims(&models.JWTClaims{UserID: "l-1", Role: models.RoleLecturer}),
		RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPut, "/grades", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/grades", "").Code)
}

func TestMetrics(t *testing.T) {
	recorder := &stubMetrics{}
	r := gin.New()
	r.Use(Metrics(recorder))
	r.GET("/enrollments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/enrollments/e-1", "")
	serve(r, http.MethodGet, "/nowhere", "")

	require.Len(t, recorder.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, path: "/enrollments/:id", status: http.StatusOK}, recorder.requests[0])
	assert.Equal(t, "unmatched", recorder.requests[1].path)
	assert.Equal(t, http.StatusNotFound, recorder.requests[1].status)
}
