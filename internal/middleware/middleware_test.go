package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/memory"
	"oustaa/internal/session"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	sessions *session.Manager
	tokens   *utils.TokenIssuer
	driver   *models.Profile
	rider    *models.Profile
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	profiles := memory.NewProfileRepository(memory.NewStore())

	driver := &models.Profile{Email: "driver@oustaa.ly", FullName: "Khaled", UserType: models.UserTypeDriver}
	rider := &models.Profile{Email: "rider@oustaa.ly", FullName: "Salma", UserType: models.UserTypeRider}
	require.NoError(t, profiles.Create(context.Background(), driver))
	require.NoError(t, profiles.Create(context.Background(), rider))

	tokens := utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	return &authFixture{
		sessions: session.NewManager(tokens, profiles, cache.NewMemoryBroker(), logger.NewNop()),
		tokens:   tokens,
		driver:   driver,
		rider:    rider,
	}
}

func (f *authFixture) token(t *testing.T, profile *models.Profile) string {
	t.Helper()
	pair, err := f.tokens.GenerateTokenPair(profile.ID, string(profile.UserType), profile.Email)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *authFixture) router(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(f.sessions)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		sess, ok := GetSession(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID.Hex(),
			"has_session": ok && sess.State() == session.StateReady,
		})
	})
	r.GET("/me", handlers...)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *utils.APIError {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestAuthRequiredWithBearerToken(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, f.rider))
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, f.rider.ID.Hex(), body["user_id"])
	assert.Equal(t, true, body["has_session"])
}

func TestAuthRequiredWithQueryToken(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/me?token="+f.token(t, f.driver), nil)
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiredRejectsMissingAndInvalidTokens(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "garbage", header: "Bearer not-a-token"},
		{name: "unknown user", header: "Bearer " + f.token(t, &models.Profile{ID: primitive.NewObjectID(), UserType: models.UserTypeRider})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			f.router().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, utils.CodeUnauthorized, decodeError(t, w).Code)
		})
	}
}

func TestUserTypeGuards(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name    string
		guard   gin.HandlerFunc
		profile *models.Profile
		status  int
	}{
		{name: "driver allowed", guard: DriverRequired(), profile: f.driver, status: http.StatusOK},
		{name: "rider blocked from driver route", guard: DriverRequired(), profile: f.rider, status: http.StatusForbidden},
		{name: "rider allowed", guard: RiderRequired(), profile: f.rider, status: http.StatusOK},
		{name: "driver blocked from rider route", guard: RiderRequired(), profile: f.driver, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+f.token(t, tt.profile))
			w := httptest.NewRecorder()
			f.router(tt.guard).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGuardWithoutAuthIsUnauthorized(t *testing.T) {
	r := gin.New()
	r.GET("/driver", DriverRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/driver", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.oustaa.ly"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://app.oustaa.ly")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.oustaa.ly", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://app.oustaa.ly")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.NewNop()), LoggingMiddleware(logger.NewNop()), MetricsMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, utils.CodeInternal, decodeError(t, w).Code)
}
