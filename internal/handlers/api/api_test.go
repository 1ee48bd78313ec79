package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/memory/v2"
	"github.com/isgnet/devreg/internal/audit"
	"github.com/isgnet/devreg/internal/auth"
	"github.com/isgnet/devreg/internal/devices"
	"github.com/isgnet/devreg/internal/handlers/api"
	"github.com/isgnet/devreg/internal/mail"
	"github.com/isgnet/devreg/internal/middlewares"
	"github.com/isgnet/devreg/internal/render"
	"github.com/isgnet/devreg/internal/store"
	"github.com/isgnet/devreg/internal/testutil"
	"github.com/isgnet/devreg/internal/users"
	"github.com/isgnet/devreg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const cookieName = "access_token"

type recordingSender struct {
	mtx      sync.Mutex
	messages []*mail.Message
}

func (s *recordingSender) Send(message *mail.Message) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSender) last() *mail.Message {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

type testServer struct {
	app    *fiber.App
	db     *gorm.DB
	sender *recordingSender
}

func newTestServer(t *testing.T) *testServer {
	require.NoError(t, render.Initialize(map[string]interface{}{"siteName": "Devreg"}, ""))
	db := testutil.NewDB(t)
	memStorage := memory.New()
	sender := &recordingSender{}

	userService := users.NewUserService(users.NewUserRepository(db), store.NewKVStorage(memStorage), users.PasswordResetOptions{
		Secret:      "test-secret",
		CodeTTL:     10 * time.Minute,
		MaxAttempts: 5,
	})
	auditRepo := audit.NewAuditLogRepository(db)
	deviceService := devices.NewDeviceService(db, devices.NewDeviceRepository(db), auditRepo)
	tokenIssuer := auth.NewTokenIssuer("test-secret", "devreg", 30*time.Minute)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(middlewares.RequestMetrics())
	resetLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		Storage:    memStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	})
	api.SetupRoutes(app.Group("/api/v1"), api.Handlers{
		Account:       api.NewAccountHandler(userService, tokenIssuer, api.CookieConfig{Name: cookieName}),
		PasswordReset: api.NewPasswordResetHandler(userService, sender, 10*time.Minute),
		Device:        api.NewDeviceHandler(deviceService),
		Audit:         api.NewAuditHandler(audit.NewAuditService(auditRepo)),
	}, middlewares.RequireAuth(tokenIssuer, userService, cookieName), resetLimiter)

	return &testServer{app: app, db: db, sender: sender}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (s *testServer) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	status, _ := s.do(t, "POST", "/api/v1/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
	}, "")
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, "POST", "/api/v1/login", map[string]string{
		"username": username,
		"password": "password1",
	}, "")
	require.Equal(t, http.StatusOK, status)
	return data(body)["access_token"].(string)
}

func data(body map[string]any) map[string]any {
	return body["data"].(map[string]any)
}

func errorCode(body map[string]any) float64 {
	return body["error"].(map[string]any)["code"].(float64)
}

func devicePayload(uid, ip string, port int) map[string]any {
	return map[string]any{
		"uid":            uid,
		"ip_address":     ip,
		"port":           port,
		"admin_username": "admin",
		"admin_password": "secret",
	}
}

func TestDeviceLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice")

	status, body := s.do(t, "POST", "/api/v1/devices", devicePayload("dev-1", "10.0.0.1", 8080), token)
	require.Equal(t, http.StatusCreated, status)
	created := data(body)
	assert.Equal(t, "dev-1", created["uid"])
	assert.NotContains(t, created, "admin_password")
	deviceID := uint64(created["id"].(float64))
	devicePath := fmt.Sprintf("/api/v1/devices/%d", deviceID)

	status, body = s.do(t, "GET", devicePath, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10.0.0.1", data(body)["ip_address"])

	status, body = s.do(t, "PUT", devicePath, map[string]any{"port": 9090}, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 9090, data(body)["port"])
	assert.Equal(t, "dev-1", data(body)["uid"])

	status, body = s.do(t, "GET", "/api/v1/audit-logs?object_type=isg_device", nil, token)
	require.Equal(t, http.StatusOK, status)
	items := data(body)["items"].([]any)
	require.Len(t, items, 2)
	latest := items[0].(map[string]any)
	assert.Equal(t, "update", latest["action"])
	assert.Equal(t, "alice", latest["username"])
	assert.Equal(t, map[string]any{"port": map[string]any{"old": float64(8080), "new": float64(9090)}}, latest["details"])

	status, body = s.do(t, "DELETE", devicePath, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("device %d deleted", deviceID), data(body)["message"])

	status, _ = s.do(t, "GET", devicePath, nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, "GET", fmt.Sprintf("/api/v1/audit-logs?object_id=%d", deviceID), nil, token)
	require.Equal(t, http.StatusOK, status)
	pagination := data(body)["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["total_results"])
}

func TestDeviceListPagination(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice")
	for i := 1; i <= 25; i++ {
		status, _ := s.do(t, "POST", "/api/v1/devices", devicePayload(fmt.Sprintf("dev-%02d", i), fmt.Sprintf("10.0.0.%d", i), 22), token)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := s.do(t, "GET", "/api/v1/devices?page_number=3&page_size=10", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(body)["items"], 5)
	pagination := data(body)["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["num_pages"])
	assert.EqualValues(t, 25, pagination["total_results"])
	assert.EqualValues(t, 3, pagination["page_number"])
	assert.EqualValues(t, 10, pagination["page_size"])

	status, _ = s.do(t, "GET", "/api/v1/devices?page_size=101", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = s.do(t, "GET", "/api/v1/devices?page_number=0", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestDeviceValidationAndConflicts(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice")

	status, body := s.do(t, "POST", "/api/v1/devices", devicePayload("", "not-an-ip", 70000), token)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Len(t, body["error"].(map[string]any)["errors"], 3)

	status, _ = s.do(t, "POST", "/api/v1/devices", devicePayload("dev-1", "10.0.0.1", 22), token)
	require.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, "POST", "/api/v1/devices", devicePayload("dev-1", "10.0.0.2", 22), token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, http.StatusBadRequest, errorCode(body))

	status, _ = s.do(t, "PUT", "/api/v1/devices/999", map[string]any{"port": 80}, token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, "PUT", "/api/v1/devices/abc", map[string]any{"port": 80}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "GET", "/api/v1/devices", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, "GET", "/api/v1/devices", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := s.registerAndLogin(t, "alice")

	status, body := s.do(t, "GET", "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", data(body)["username"])

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ = s.do(t, "POST", "/api/v1/login", map[string]string{"username": "alice", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	require.NoError(t, s.db.Unscoped().Where("username = ?", "alice").Delete(&model.User{}).Error)
	status, _ = s.do(t, "GET", "/api/v1/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginWithForm(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice")

	form := strings.NewReader("username=alice&password=password1")
	req := httptest.NewRequest("POST", "/api/v1/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestRegisterConflicts(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice")

	status, body := s.do(t, "POST", "/api/v1/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, users.ErrUsernameTaken.Error(), body["error"].(map[string]any)["message"])

	status, _ = s.do(t, "POST", "/api/v1/register", map[string]string{
		"username": "bad name",
		"email":    "bad",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "alice")

	status, _ := s.do(t, "PUT", "/api/v1/change-password", map[string]string{
		"old_password": "wrong-password",
		"new_password": "password2",
	}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, "PUT", "/api/v1/change-password", map[string]string{
		"old_password": "password1",
		"new_password": "password2",
	}, token)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, "POST", "/api/v1/login", map[string]string{"username": "alice", "password": "password2"}, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice")

	status, _ := s.do(t, "POST", "/api/v1/request-password-reset", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, "POST", "/api/v1/request-password-reset", map[string]string{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, status)

	require.Eventually(t, func() bool { return s.sender.last() != nil }, 2*time.Second, 10*time.Millisecond)
	msg := s.sender.last()
	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	code := strings.Fields(msg.Subject)[0]
	require.Len(t, code, 4)

	status, _ = s.do(t, "POST", "/api/v1/verify-reset-code", map[string]string{"email": "alice@example.com", "code": code}, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, "POST", "/api/v1/set-new-password", map[string]string{
		"email":        "alice@example.com",
		"code":         code,
		"new_password": "password2",
	}, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, "POST", "/api/v1/login", map[string]string{"username": "alice", "password": "password2"}, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestPasswordResetRateLimited(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		status, _ := s.do(t, "POST", "/api/v1/verify-reset-code", map[string]string{"email": "a@example.com", "code": "0000"}, "")
		require.Equal(t, http.StatusBadRequest, status)
	}
	status, _ := s.do(t, "POST", "/api/v1/verify-reset-code", map[string]string{"email": "a@example.com", "code": "0000"}, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
}
