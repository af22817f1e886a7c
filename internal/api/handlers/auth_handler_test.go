package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sinkandika/fyzy-web/internal/api/handlers"
	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/models"
	"github.com/sinkandika/fyzy-web/internal/services"
)

func setupAuthRouter(accountSvc services.IAccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JwtSecret: "test-secret", JwtTTL: time.Hour}
	h := handlers.NewAuthHandler(accountSvc, cfg)
	r := gin.New()
	r.POST("/v1/auth/register", h.Register)
	r.POST("/v1/auth/login", h.Login)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	mockSvc := new(MockAccountService)
	account := &models.Account{Base: models.NewBase(), Name: "Owner", Email: "owner@example.com"}
	mockSvc.On("Register", mock.Anything, "Owner", "owner@example.com", "hunter22").Return(account, nil)

	router := setupAuthRouter(mockSvc)
	w := postJSON(t, router, "/v1/auth/register", gin.H{
		"name": "Owner", "email": "owner@example.com", "password": "hunter22",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, account.ID.Hex(), resp["id"])
	mockSvc.AssertExpectations(t)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	mockSvc := new(MockAccountService)
	router := setupAuthRouter(mockSvc)

	// Bad email
	w := postJSON(t, router, "/v1/auth/register", gin.H{
		"email": "not-an-email", "password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Short password
	w = postJSON(t, router, "/v1/auth/register", gin.H{
		"email": "owner@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	mockSvc := new(MockAccountService)
	mockSvc.On("Register", mock.Anything, "", "owner@example.com", "hunter22").Return(nil, services.ErrEmailExists)

	router := setupAuthRouter(mockSvc)
	w := postJSON(t, router, "/v1/auth/register", gin.H{
		"email": "owner@example.com", "password": "hunter22",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	mockSvc := new(MockAccountService)
	account := &models.Account{Base: models.NewBase(), Email: "owner@example.com"}
	mockSvc.On("Login", mock.Anything, "owner@example.com", "hunter22").Return(account, nil)

	router := setupAuthRouter(mockSvc)
	w := postJSON(t, router, "/v1/auth/login", gin.H{
		"email": "owner@example.com", "password": "hunter22",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	mockSvc := new(MockAccountService)
	mockSvc.On("Login", mock.Anything, "owner@example.com", "wrong").Return(nil, services.ErrInvalidCredentials)

	router := setupAuthRouter(mockSvc)
	w := postJSON(t, router, "/v1/auth/login", gin.H{
		"email": "owner@example.com", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
