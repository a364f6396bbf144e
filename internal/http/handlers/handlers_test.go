package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/rbac"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBotToken = "123456:handler-test-token"

func readError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", fmt.Errorf("%w: title is too short", services.ErrValidation), http.StatusBadRequest, "title is too short"},
		{"not found", fmt.Errorf("listing: %w", services.ErrNotFound), http.StatusNotFound, "listing: not found"},
		{"conflict", fmt.Errorf("category: %w", services.ErrConflict), http.StatusConflict, "category: conflict"},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, "invalid auth data"},
		{"disabled", services.ErrAccountDisabled, http.StatusForbidden, "account is disabled"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, zap.NewNop(), tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, readError(t, resp).Error)
		})
	}
}

func TestQueryParsers(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		page, perPage, offset := pageParams(c)
		return c.JSON(fiber.Map{
			"category_id": queryInt64(c, "category_id"),
			"min_price":   queryFloat(c, "min_price"),
			"featured":    queryBool(c, "featured"),
			"search":      queryString(c, "search"),
			"from":        queryDate(c, "from"),
			"page":        page,
			"per_page":    perPage,
			"offset":      offset,
		})
	})

	var got struct {
		CategoryID *int64     `json:"category_id"`
		MinPrice   *float64   `json:"min_price"`
		Featured   *bool      `json:"featured"`
		Search     *string    `json:"search"`
		From       *time.Time `json:"from"`
		Page       int        `json:"page"`
		PerPage    int        `json:"per_page"`
		Offset     int        `json:"offset"`
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/?category_id=3&min_price=9.5&featured=true&search=%20tg%20&from=2024-05-01&page=3&per_page=10", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, int64(3), *got.CategoryID)
	require.NotNil(t, got.MinPrice)
	assert.Equal(t, 9.5, *got.MinPrice)
	require.NotNil(t, got.Featured)
	assert.True(t, *got.Featured)
	require.NotNil(t, got.Search)
	assert.Equal(t, "tg", *got.Search)
	require.NotNil(t, got.From)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got.From.UTC())
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 10, got.PerPage)
	assert.Equal(t, 20, got.Offset)

	got = struct {
		CategoryID *int64     `json:"category_id"`
		MinPrice   *float64   `json:"min_price"`
		Featured   *bool      `json:"featured"`
		Search     *string    `json:"search"`
		From       *time.Time `json:"from"`
		Page       int        `json:"page"`
		PerPage    int        `json:"per_page"`
		Offset     int        `json:"offset"`
	}{}
	resp, err = app.Test(httptest.NewRequest(http.MethodGet,
		"/?category_id=abc&min_price=cheap&featured=maybe&search=%20&from=yesterday&page=-1&per_page=1000", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.MinPrice)
	assert.Nil(t, got.Featured)
	assert.Nil(t, got.Search)
	assert.Nil(t, got.From)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 0, got.Offset)
}

func TestMetaHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/meta", NewMetaHandler().Get)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/meta", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK   bool         `json:"ok"`
		Data MetaResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, models.SupportedCurrencies, body.Data.Currencies)
	assert.Equal(t, models.DefaultCurrency, body.Data.DefaultCurrency)
	assert.Equal(t, models.MaxTitleLength, body.Data.Limits.MaxTitleLength)
	assert.Equal(t, models.MaxMessageLength, body.Data.Limits.MaxMessageLength)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name    string
		checks  map[string]Check
		status  int
		overall string
	}{
		{"all up", map[string]Check{"postgres": ok, "redis": ok}, http.StatusOK, "ok"},
		{"redis down", map[string]Check{"postgres": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
		{"no checks", nil, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler(tt.checks).Health)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.overall, body.Status)
			for name := range tt.checks {
				assert.Contains(t, body.Checks, name)
			}
		})
	}
}

// memUsers is an in-memory UserStore for end-to-end handler tests.
type memUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]*models.User{}}
}

func (m *memUsers) UpsertLogin(_ context.Context, id int64, username, firstName, lastName *string, minRole string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		u = &models.User{TelegramUserID: id, Role: rbac.RoleUser, IsActive: true, CreatedAt: time.Now()}
		m.users[id] = u
	}
	u.Username, u.FirstName, u.LastName = username, firstName, lastName
	u.Role = rbac.Max(u.Role, minRole)
	now := time.Now()
	u.LastLoginAt = &now
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByTelegramID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetPayoutWallet(_ context.Context, id int64, wallet *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.PayoutWallet = wallet
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context, repositories.UserFilter) ([]models.UserWithStats, int, error) {
	return nil, 0, nil
}

func (m *memUsers) GetWithStats(ctx context.Context, id int64) (*models.UserWithStats, error) {
	u, err := m.GetByTelegramID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserWithStats{User: *u}, nil
}

func (m *memUsers) UpdateAdmin(_ context.Context, id int64, role *string, isActive *bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type nopAudit struct{}

func (nopAudit) Log(context.Context, models.AuditLog) error { return nil }

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = until
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func initDataFor(authDate time.Time, userJSON string) string {
	fields := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"user":      userJSON,
	}
	hash := auth.Sign(fields, testBotToken)
	return "auth_date=" + fields["auth_date"] +
		"&user=" + strings.ReplaceAll(url.QueryEscape(userJSON), "+", "%20") +
		"&hash=" + hash
}

type authApp struct {
	app     *fiber.App
	users   *memUsers
	revoked *memRevocations
}

func newAuthApp() *authApp {
	cfg := &config.Config{
		JWTSecret:        "handler-secret",
		JWTExpiration:    time.Hour,
		AdminTelegramIDs: []int64{777},
	}
	users := newMemUsers()
	revoked := &memRevocations{}
	verifier := auth.NewWebAppVerifier(auth.WebAppConfig{BotToken: testBotToken})
	svc := services.NewAuthService(verifier, users, nopAudit{}, revoked, cfg, zap.NewNop())
	h := NewAuthHandler(svc, zap.NewNop())

	app := fiber.New()
	app.Use(middleware.RequestIDMiddleware())
	app.Post("/auth/telegram", h.TelegramAuth)
	app.Post("/auth/logout", middleware.AuthMiddleware(cfg, revoked, zap.NewNop()), h.Logout)
	app.Get("/me", middleware.AuthMiddleware(cfg, revoked, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": middleware.GetTelegramUserID(c)})
	})
	return &authApp{app: app, users: users, revoked: revoked}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestTelegramAuthIssuesToken(t *testing.T) {
	a := newAuthApp()
	initData := initDataFor(time.Now(), `{"id":777,"first_name":"Ann","username":"ann_otc"}`)

	resp := postJSON(t, a.app, "/auth/telegram", dto.AuthTelegramRequest{InitData: initData})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expires_at"`
		User      models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Token)
	assert.True(t, body.ExpiresAt.After(time.Now()))
	assert.Equal(t, int64(777), body.User.TelegramUserID)
	assert.Equal(t, rbac.RoleAdmin, body.User.Role)
	require.NotNil(t, body.User.Username)
	assert.Equal(t, "ann_otc", *body.User.Username)

	// Токен работает, пока не отозван
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	me, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, me.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	out, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	me, err = a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
}

func TestTelegramAuthRejects(t *testing.T) {
	valid := initDataFor(time.Now(), `{"id":42,"first_name":"Bob"}`)

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"empty init data", dto.AuthTelegramRequest{}, http.StatusBadRequest, "init_data is required"},
		{"blank init data", dto.AuthTelegramRequest{InitData: "   "}, http.StatusBadRequest, "init_data is required"},
		{"tampered", dto.AuthTelegramRequest{InitData: strings.Replace(valid, "Bob", "Eve", 1)}, http.StatusUnauthorized, "invalid auth data"},
		{"expired", dto.AuthTelegramRequest{InitData: initDataFor(time.Now().Add(-25*time.Hour), `{"id":42}`)}, http.StatusUnauthorized, "invalid auth data"},
		{"no hash", dto.AuthTelegramRequest{InitData: "auth_date=1&user=%7B%22id%22%3A42%7D"}, http.StatusUnauthorized, "invalid auth data"},
	}
	a := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, a.app, "/auth/telegram", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			e := readError(t, resp)
			assert.Equal(t, tt.msg, e.Error)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestTelegramAuthInvalidBody(t *testing.T) {
	a := newAuthApp()
	req := httptest.NewRequest(http.MethodPost, "/auth/telegram", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid request body")
}

func TestTelegramAuthDisabledAccount(t *testing.T) {
	a := newAuthApp()
	a.users.users[42] = &models.User{TelegramUserID: 42, Role: rbac.RoleUser, IsActive: false}

	resp := postJSON(t, a.app, "/auth/telegram", dto.AuthTelegramRequest{
		InitData: initDataFor(time.Now(), `{"id":42,"first_name":"Bob"}`),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "account is disabled", readError(t, resp).Error)
}
