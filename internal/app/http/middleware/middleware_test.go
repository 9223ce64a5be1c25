package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agency-portal/internal/domain/profiles"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func token(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func serve(r *gin.Engine, method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/admin", AuthMiddleware(secret), RequireRole(profiles.RoleAdmin))
	admin.GET("/whoami", func(c *gin.Context) {
		id, ok := CallerID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id.String()})
	})

	id := uuid.New()

	w := serve(r, http.MethodGet, "/admin/whoami", token(t, id.String(), profiles.RoleAdmin, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())

	w = serve(r, http.MethodGet, "/admin/whoami", token(t, id.String(), profiles.RoleClient, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodGet, "/admin/whoami", token(t, id.String(), profiles.RoleAdmin, time.Now().Add(-time.Hour)), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/admin/whoami", token(t, "not-a-uuid", profiles.RoleAdmin, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/admin/whoami", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type profileMap map[uuid.UUID]*profiles.Profile

func (m profileMap) GetProfile(_ context.Context, id uuid.UUID) (*profiles.Profile, error) {
	return m[id], nil
}

func TestRequireBillingLinked(t *testing.T) {
	gin.SetMode(gin.TestMode)

	linked := &profiles.Profile{Role: profiles.RoleClient}
	linked.ID = uuid.New()
	cus := "cus_1"
	linked.StripeCustomerID = &cus

	unlinked := &profiles.Profile{Role: profiles.RoleClient}
	unlinked.ID = uuid.New()

	r := gin.New()
	r.Use(AuthMiddleware(secret), RequireBillingLinked(profileMap{linked.ID: linked, unlinked.ID: unlinked}))
	r.POST("/billing-portal", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customer": *LinkedProfile(c).StripeCustomerID})
	})

	w := serve(r, http.MethodPost, "/billing-portal", token(t, linked.ID.String(), profiles.RoleClient, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cus_1")

	w = serve(r, http.MethodPost, "/billing-portal", token(t, unlinked.ID.String(), profiles.RoleClient, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/billing-portal", token(t, uuid.NewString(), profiles.RoleClient, time.Now().Add(time.Hour)), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSanitizeAndCleanInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", body)
	})

	w := serve(r, http.MethodPost, "/echo", "", []byte(`{"description":"<script>alert(1)</script>Design work","amount":100}`))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Design work", got["description"])
	assert.EqualValues(t, 100, got["amount"])

	w = serve(r, http.MethodPost, "/echo", "", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, http.MethodGet, "/", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}
