package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"eshop/internal/avatar"
	"eshop/internal/config"
	"eshop/internal/models"
	"eshop/internal/security"
	"eshop/internal/service"
)

const sessionSecret = "session-secret-0123456789"

type stubSessions struct{}

func (stubSessions) ParseSessionToken(token string) (*security.SessionClaims, error) {
	return security.ParseSessionToken(token, sessionSecret)
}

func (stubSessions) SessionTTL() time.Duration { return time.Hour }

// stubUsers keeps accounts in memory and returns canned errors where set.
type stubUsers struct {
	byID      map[string]models.User
	signupErr error
	loginErr  error
	deleted   []string
}

func newStubUsers(users ...models.User) *stubUsers {
	s := &stubUsers{byID: map[string]models.User{}}
	for _, u := range users {
		s.byID[u.IDHex()] = u
	}
	return s
}

func (s *stubUsers) Signup(_ context.Context, in service.SignupInput) (models.User, error) {
	if s.signupErr != nil {
		return models.User{}, s.signupErr
	}
	for _, u := range s.byID {
		if u.Email == in.Email {
			return models.User{}, service.ErrDuplicateUser
		}
	}
	u := models.User{ID: bson.NewObjectID(), Name: in.Name, Email: in.Email, Password: "hashed"}
	s.byID[u.IDHex()] = u
	return u, nil
}

func (s *stubUsers) ResendActivation(context.Context, string) error { return nil }

func (s *stubUsers) Activate(_ context.Context, token string) (models.User, string, error) {
	return models.User{}, "", service.ErrInvalidToken
}

func (s *stubUsers) Login(_ context.Context, email, password string) (models.User, string, error) {
	if s.loginErr != nil {
		return models.User{}, "", s.loginErr
	}
	for _, u := range s.byID {
		if u.Email == email {
			tok, err := security.GenerateSessionToken(sessionSecret, u.IDHex(), string(u.Role), time.Hour)
			return u, tok, err
		}
	}
	return models.User{}, "", service.ErrInvalidCredentials
}

func (s *stubUsers) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return models.User{}, service.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) UpdateInfo(_ context.Context, id string, in service.UpdateInfoInput) (models.User, error) {
	u := s.byID[id]
	u.Name = in.Name
	s.byID[id] = u
	return u, nil
}

func (s *stubUsers) UpdateAvatar(_ context.Context, id string, dataURI string) (models.User, error) {
	if dataURI == "" {
		return models.User{}, service.ErrAvatarRequired
	}
	if strings.Contains(dataURI, "@") {
		return models.User{}, fmt.Errorf("%w: %w: decode base64: illegal base64 data at input byte 0", avatar.ErrUploadFailed, avatar.ErrInvalidImage)
	}
	return models.User{}, fmt.Errorf("%w: bucket gone", avatar.ErrUploadFailed)
}

func (s *stubUsers) UpsertAddress(_ context.Context, id string, a models.Address) (models.User, error) {
	u := s.byID[id]
	for _, existing := range u.Addresses {
		if existing.AddressType == a.AddressType {
			return models.User{}, fmt.Errorf("%s %w", a.AddressType, service.ErrDuplicateAddressType)
		}
	}
	a.ID = "addr-1"
	u.Addresses = append(u.Addresses, a)
	s.byID[id] = u
	return u, nil
}

func (s *stubUsers) DeleteAddress(_ context.Context, id string, _ string) (models.User, error) {
	return s.byID[id], nil
}

func (s *stubUsers) ChangePassword(_ context.Context, _ string, in service.ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return service.ErrPasswordMismatch
	}
	return nil
}

func (s *stubUsers) GetPublic(ctx context.Context, id string) (models.User, error) {
	return s.GetUser(ctx, id)
}

func (s *stubUsers) ListAll(context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range s.byID {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUsers) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return service.ErrUserNotFound
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Security:    config.SecurityConfig{CookieName: "token", CookieSecure: true},
	}
}

func newTestRouter(users *stubUsers, checks map[string]HealthChecker) *gin.Engine {
	h := NewHandlerSet(zerolog.Nop(), testConfig(), users, stubSessions{}, checks)
	r := gin.New()
	h.Register(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieFor(t *testing.T, u models.User) *http.Cookie {
	tok, err := security.GenerateSessionToken(sessionSecret, u.IDHex(), string(u.Role), time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: "token", Value: tok}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateUserThenDuplicate(t *testing.T) {
	r := newTestRouter(newStubUsers(), nil)
	body := map[string]string{"name": "A", "email": "a@x.com", "password": "p1"}

	w := doJSON(t, r, http.MethodPost, "/api/v2/user/create-user", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Please check your email: a@x.com to activate your account!", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodPost, "/api/v2/user/create-user", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, service.ErrDuplicateUser.Error(), resp["message"])
}

func TestLoginSetsCookieWithoutPassword(t *testing.T) {
	user := models.User{ID: bson.NewObjectID(), Email: "a@x.com", Password: "$argon2id$secret", Role: models.UserRoleUser}
	r := newTestRouter(newStubUsers(user), nil)

	w := doJSON(t, r, http.MethodPost, "/api/v2/user/login-user", map[string]string{"email": "a@x.com", "password": "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "argon2id")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestLoginErrors(t *testing.T) {
	users := newStubUsers()
	r := newTestRouter(users, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v2/user/login-user", map[string]string{"email": "x@x.com", "password": "p"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), decode(t, w)["message"])

	users.loginErr = errors.New("mongo: connection reset")
	w = doJSON(t, r, http.MethodPost, "/api/v2/user/login-user", map[string]string{"email": "x@x.com", "password": "p"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["message"])
}

func TestActivationRequiresToken(t *testing.T) {
	r := newTestRouter(newStubUsers(), nil)

	w := doJSON(t, r, http.MethodPost, "/api/v2/user/activation", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v2/user/activation", map[string]string{"activation_token": "expired"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrInvalidToken.Error(), decode(t, w)["message"])
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newTestRouter(newStubUsers(), nil)
	w := doJSON(t, r, http.MethodGet, "/api/v2/user/logout", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Log out successful!", decode(t, w)["message"])
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestGetUserRequiresSession(t *testing.T) {
	user := models.User{ID: bson.NewObjectID(), Name: "Ada", Email: "a@x.com", Password: "hash"}
	r := newTestRouter(newStubUsers(user), nil)

	w := doJSON(t, r, http.MethodGet, "/api/v2/user/getuser", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Please login to continue", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodGet, "/api/v2/user/getuser", nil, cookieFor(t, user))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	got := resp["user"].(map[string]any)
	assert.Equal(t, "Ada", got["name"])
	assert.Equal(t, user.IDHex(), got["_id"])
	assert.NotContains(t, got, "password")
}

func TestUpdateAddressDuplicateType(t *testing.T) {
	user := models.User{ID: bson.NewObjectID()}
	r := newTestRouter(newStubUsers(user), nil)
	cookie := cookieFor(t, user)

	w := doJSON(t, r, http.MethodPut, "/api/v2/user/update-user-addresses", map[string]string{"addressType": "home", "city": "Oslo"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/v2/user/update-user-addresses", map[string]string{"addressType": "home"}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "home address already exists", decode(t, w)["message"])
}

func TestUpdateAvatarErrors(t *testing.T) {
	user := models.User{ID: bson.NewObjectID()}
	r := newTestRouter(newStubUsers(user), nil)
	cookie := cookieFor(t, user)

	w := doJSON(t, r, http.MethodPut, "/api/v2/user/update-avatar", map[string]string{"avatar": ""}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/v2/user/update-avatar", map[string]string{"avatar": "data:image/png;base64,@@@@"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "image upload failed", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodPut, "/api/v2/user/update-avatar", map[string]string{"avatar": "data:image/png;base64,AAAA"}, cookie)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "image upload failed", decode(t, w)["message"])
}

func TestUpdatePassword(t *testing.T) {
	user := models.User{ID: bson.NewObjectID()}
	r := newTestRouter(newStubUsers(user), nil)
	cookie := cookieFor(t, user)

	w := doJSON(t, r, http.MethodPut, "/api/v2/user/update-user-password",
		map[string]string{"oldPassword": "a", "newPassword": "b", "confirmPassword": "c"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/v2/user/update-user-password",
		map[string]string{"oldPassword": "a", "newPassword": "b", "confirmPassword": "b"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password updated successfully!", decode(t, w)["message"])
}

func TestUserInfoIsPublic(t *testing.T) {
	user := models.User{ID: bson.NewObjectID(), Name: "Ada"}
	r := newTestRouter(newStubUsers(user), nil)

	w := doJSON(t, r, http.MethodGet, "/api/v2/user/user-info/"+user.IDHex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v2/user/user-info/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	user := models.User{ID: bson.NewObjectID(), Role: models.UserRoleUser}
	admin := models.User{ID: bson.NewObjectID(), Role: models.UserRoleAdmin}
	users := newStubUsers(user, admin)
	r := newTestRouter(users, nil)

	w := doJSON(t, r, http.MethodGet, "/api/v2/user/admin-all-users", nil, cookieFor(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v2/user/admin-all-users", nil, cookieFor(t, admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["users"], 2)

	w = doJSON(t, r, http.MethodDelete, "/api/v2/user/delete-user/"+user.IDHex(), nil, cookieFor(t, admin))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User deleted successfully!", decode(t, w)["message"])
	assert.Equal(t, []string{user.IDHex()}, users.deleted)

	w = doJSON(t, r, http.MethodDelete, "/api/v2/user/delete-user/"+user.IDHex(), nil, cookieFor(t, admin))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newStubUsers(), map[string]HealthChecker{
		"mongo":    HealthFunc(func(context.Context) error { return nil }),
		"postgres": HealthFunc(func(context.Context) error { return errors.New("down") }),
	})

	w := doJSON(t, r, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "degraded", resp["status"])
	checks := resp["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["mongo"])
	assert.Equal(t, "error", checks["postgres"])
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrMissingField, http.StatusBadRequest},
		{service.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w: bad header", avatar.ErrUploadFailed, avatar.ErrInvalidImage), http.StatusBadRequest},
		{fmt.Errorf("%w: bucket gone", avatar.ErrUploadFailed), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
