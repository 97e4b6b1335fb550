package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"userauth/internal/config"
	"userauth/internal/handlers"
	"userauth/internal/models"
	"userauth/internal/routes"
	"userauth/internal/services"
)

// ===== fakes =====

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]*models.User{}}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email")
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.User
	for _, u := range r.users {
		cp := *u
		res = append(res, &cp)
	}
	return res, nil
}

func (r *fakeUserRepo) GetCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) UpdatePassword(userID int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdatePasswordByEmail(email, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) UpdateDeviceToken(userID int, deviceToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.DeviceToken = deviceToken
	return nil
}

func (r *fakeUserRepo) UpdateImage(userID int, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.Image = image
	return nil
}

type sentMail struct {
	Kind    string
	To      string
	Link    string
	OTP     int
	Subject string
}

type fakeEmailService struct {
	sent chan sentMail
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{sent: make(chan sentMail, 16)}
}

func (f *fakeEmailService) SendWelcomeEmail(email, name string) error {
	f.sent <- sentMail{Kind: "welcome", To: email}
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(email, resetLink string, otp int) error {
	f.sent <- sentMail{Kind: "reset", To: email, Link: resetLink, OTP: otp}
	return nil
}

func (f *fakeEmailService) SendPasswordChangedEmail(email string) error {
	f.sent <- sentMail{Kind: "changed", To: email}
	return nil
}

func (f *fakeEmailService) Send(from, to, subject, body string) error {
	f.sent <- sentMail{Kind: "generic", To: to, Subject: subject}
	return nil
}

func (f *fakeEmailService) waitFor(t *testing.T, kind string) sentMail {
	t.Helper()
	for {
		select {
		case m := <-f.sent:
			if m.Kind == kind {
				return m
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q mail dispatched", kind)
		}
	}
}

// ===== harness =====

type testEnv struct {
	router *gin.Engine
	repo   *fakeUserRepo
	emails *fakeEmailService
	tokens services.TokenService
	auth   services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeUserRepo()
	emails := newFakeEmailService()
	authSvc := services.NewAuthService(bcrypt.MinCost)
	tokens := services.NewTokenService(&config.AuthConfig{
		AccessSecret:     "test-access-secret",
		ResetSecret:      "test-reset-secret",
		AccessTTLMinutes: 60,
	})
	userSvc := services.NewUserService(repo, emails, authSvc)

	authHandler := handlers.NewAuthHandler(userSvc, authSvc, tokens, emails, nil)
	userHandler := handlers.NewUserHandler(userSvc, nil, t.TempDir())
	mailHandler := handlers.NewMailHandler(emails)

	router := routes.SetupRoutes(gin.New(), authHandler, userHandler, mailHandler, tokens, repo)
	return &testEnv{router: router, repo: repo, emails: emails, tokens: tokens, auth: authSvc}
}

func (e *testEnv) seedUser(t *testing.T, name, email, password string) *models.User {
	t.Helper()
	hash, err := e.auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, PasswordHash: hash, Gender: "Female", Role: models.RoleUser}
	require.NoError(t, e.repo.Create(u))
	return u
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// ===== login =====

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")

	rr := env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password1",
	}, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Logged successfully", body["message"])

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	claims, err := env.tokens.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.ID)
	require.Equal(t, u.Email, claims.Email)
	require.Equal(t, u.Name, claims.Name)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	require.NotContains(t, user, "password")
	require.NotContains(t, user, "passwordHash")
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "x@x.com",
		"password": "whatever",
	}, nil)

	require.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
	require.Equal(t, "User not found", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Alice", "alice@example.com", "password1")

	rr := env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password2",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Wrong password", body["message"])
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, req := range []gin.H{
		{},
		{"email": "a@a.com"},
		{"password": "secret1"},
	} {
		rr := env.do(http.MethodPost, "/api/v1/auth/login", req, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}
}

func TestLoginPersistsDeviceToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")

	rr := env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":       "alice@example.com",
		"password":    "password1",
		"deviceToken": "device-abc",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	stored, err := env.repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "device-abc", stored.DeviceToken)
}

// ===== me =====

func TestGetMe(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")
	token, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	rr := env.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	require.Equal(t, "alice@example.com", user["email"])
}

func TestGetMeReflectsCurrentIdentity(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")
	token, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	// rename after token issuance; the middleware resolves the stored
	// identity, so the new name shows up without a new token
	stored, err := env.repo.GetByID(u.ID)
	require.NoError(t, err)
	stored.Name = "Alice Renamed"
	require.NoError(t, env.repo.Update(stored))

	rr := env.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	user, _ := body["user"].(map[string]any)
	require.Equal(t, "Alice Renamed", user["name"])
}

// ===== change password =====

func TestChangePasswordRejectsSamePassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")
	token, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	// rejected even though the credential is valid
	rr := env.do(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "password1",
		"newPassword":     "password1",
	}, bearer(token))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "Current Password and New Password should not be same", body["message"])
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")
	token, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "nope",
		"newPassword":     "password2",
	}, bearer(token))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChangePasswordSuccess(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Alice", "alice@example.com", "password1")
	token, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "password1",
		"newPassword":     "password2",
	}, bearer(token))
	require.Equal(t, http.StatusOK, rr.Code)

	// old password no longer works, new one does
	rr = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "alice@example.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "alice@example.com", "password": "password2",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	m := env.emails.waitFor(t, "changed")
	require.Equal(t, "alice@example.com", m.To)
}

func TestChangePasswordRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "a", "newPassword": "b",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

// ===== forgot password =====

func TestForgotPasswordSendsMailWithoutLeakingOTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Alice", "alice@example.com", "password1")

	rr := env.do(http.MethodPost, "/api/v1/auth/forgot-password", gin.H{
		"email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	m := env.emails.waitFor(t, "reset")
	require.Equal(t, "alice@example.com", m.To)
	require.GreaterOrEqual(t, m.OTP, 100000)
	require.LessOrEqual(t, m.OTP, 999999)
	require.Contains(t, m.Link, "/api/v1/auth/reset-password/")

	// the OTP must never appear in the API response
	require.NotContains(t, rr.Body.String(), fmt.Sprintf("%d", m.OTP))
	body := decodeBody(t, rr)
	require.NotContains(t, body, "otp")
	require.NotContains(t, body, "token")
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/forgot-password", gin.H{
		"email": "missing@example.com",
	}, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/forgot-password", gin.H{}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

// ===== reset password =====

func TestResetPasswordFullFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Alice", "alice@example.com", "password1")

	token, err := env.tokens.IssueResetToken("alice@example.com", 482913)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/v1/auth/reset-password/"+token, gin.H{
		"email":    "alice@example.com",
		"otp":      "482913",
		"password": "brand-new-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, true, body["success"])
	require.NotNil(t, body["user"])

	// new password logs in, the old one is gone
	rr = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "alice@example.com", "password": "brand-new-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "alice@example.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestResetPasswordWrongOTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Alice", "alice@example.com", "password1")

	token, err := env.tokens.IssueResetToken("alice@example.com", 482913)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/v1/auth/reset-password/"+token, gin.H{
		"email":    "alice@example.com",
		"otp":      "482914",
		"password": "brand-new-pass",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "Invalid OTP", body["message"])
}

func TestResetPasswordWrongEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Alice", "alice@example.com", "password1")

	token, err := env.tokens.IssueResetToken("alice@example.com", 482913)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/v1/auth/reset-password/"+token, gin.H{
		"email":    "mallory@example.com",
		"otp":      "482913",
		"password": "brand-new-pass",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "Invalid email", body["message"])
}

func TestResetPasswordInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/reset-password/garbage-token", gin.H{
		"email":    "alice@example.com",
		"otp":      "482913",
		"password": "brand-new-pass",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "Invalid or expired token", body["message"])
}

func TestResetPasswordMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/auth/reset-password/some-token", gin.H{
		"email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
