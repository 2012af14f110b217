package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/formpilot/formpilot/internal/api/middleware"
	"github.com/formpilot/formpilot/internal/config"
	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

func setupAuthAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	auth := services.NewAuthService(db, config.Config{JWTSecret: "test-secret", AllowRegistration: true})
	handler := NewAuthHandler(auth)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterPublicRoutes(api)
	protected := api.Group("")
	protected.Use(middleware.Auth(auth))
	handler.RegisterProtectedRoutes(protected)
	return router
}

func TestRegisterAndLogin(t *testing.T) {
	router := setupAuthAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "admin@example.com",
		"password": "changeme123",
		"name":     "Admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "admin", user.Role)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "admin@example.com",
		"password": "changeme123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := setupAuthAPI(t)

	doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "user@example.com",
		"password": "changeme123",
	})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	router := setupAuthAPI(t)

	doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "user@example.com",
		"password": "changeme123",
	})
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "changeme123",
	})
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req, err := http.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "user@example.com", user.Email)
}

func TestMeRequiresToken(t *testing.T) {
	router := setupAuthAPI(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
