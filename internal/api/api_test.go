package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"menumakers/internal/config"
	"menumakers/internal/database"
	"menumakers/internal/domain"
	"menumakers/internal/mail/mock_mail"
	"menumakers/internal/ratelimit"
	"menumakers/internal/services"
	"menumakers/internal/session"
	"menumakers/internal/store"
	"menumakers/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

const (
	testAdmin    = "admin"
	testPassword = "correct horse battery"
)

type testEnv struct {
	handler http.Handler
	db      *gorm.DB
	store   *store.GormStore
	sender  *mock_mail.MockSender
}

func newTestEnv(t *testing.T, debug bool) *testEnv {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	st := store.NewGormStore(db)

	sender := mock_mail.NewMockSender(gomock.NewController(t))
	emailCfg := &config.EmailConfig{
		FromEmail:    "noreply@menumakers.test",
		FromName:     "Menu Makers",
		CompanyEmail: "hello@menumakers.test",
		CompanyName:  "Menu Makers Company",
	}
	email := services.NewEmailService(sender, emailCfg)
	team := services.NewTeamDirectory(map[string]config.TeamMember{
		"jatinder": {Name: "Jatinder Kaur"},
	}, emailCfg.CompanyName, emailCfg.CompanyEmail)

	sessions := session.NewMemoryStore()
	t.Cleanup(sessions.Close)
	counter := ratelimit.NewMemoryCounter()
	t.Cleanup(counter.Close)

	auth := services.NewAuthService(st, sessions, util.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour), time.Hour)
	_, _, err = auth.EnsureDefaultAdmin(t.Context(), testAdmin, testPassword)
	require.NoError(t, err)

	srv := New(Deps{
		Health:         services.NewHealthService(st, "Menu Makers API"),
		Contact:        services.NewContactService(st, email, team),
		Auth:           auth,
		Inquiries:      services.NewInquiryService(st, email),
		ContactLimiter: ratelimit.New(counter, "contact", 5, 15*time.Minute),
		Cookie:         CookieConfig{Name: "admin_session"},
		Debug:          debug,
	})

	return &testEnv{handler: srv.Handler(), db: db, store: st, sender: sender}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
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
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/admin/login", loginRequest{Username: testAdmin, Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "admin_session" {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func (e *testEnv) inquiryCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&domain.ContactInquiry{}).Count(&n).Error)
	return n
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	res := decode[healthResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, "connected", res.Database)
}

func TestContact(t *testing.T) {
	env := newTestEnv(t, false)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	rec := env.do(t, http.MethodPost, "/api/contact", contactRequest{
		Name: "Alice", Email: "alice@x.com", Message: "Hi", TeamMember: "jatinder",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	res := decode[contactResponse](t, rec)
	assert.True(t, res.Success)
	require.NotZero(t, res.ReferenceID)
	assert.Contains(t, res.Message, fmt.Sprintf("#%d", res.ReferenceID))

	inq, err := env.store.GetInquiry(t.Context(), res.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", inq.IPAddress)
}

func TestContact_BadRequests(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/contact", contactRequest{Name: "Alice", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode[errorResponse](t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "Name, email, and message are required fields.", res.Message)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	env.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	assert.Zero(t, env.inquiryCount(t))
}

func TestContact_RateLimited(t *testing.T) {
	env := newTestEnv(t, false)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(10)

	body := contactRequest{Name: "Spam", Email: "spam@example.com", Message: "again"}
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, "/api/contact", body)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := env.do(t, http.MethodPost, "/api/contact", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	res := decode[errorResponse](t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "RATE_LIMITED", res.Code)

	assert.EqualValues(t, 5, env.inquiryCount(t))
}

func TestAdmin_RequiresSession(t *testing.T) {
	env := newTestEnv(t, false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/inquiries"},
		{http.MethodGet, "/api/admin/inquiries/1"},
		{http.MethodPut, "/api/admin/inquiries/1/status"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/send-email"},
	} {
		rec := env.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.False(t, decode[errorResponse](t, rec).Success)
	}

	bogus := &http.Cookie{Name: "admin_session", Value: "forged"}
	rec := env.do(t, http.MethodGet, "/api/admin/stats", nil, bogus)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_Login(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/admin/login", loginRequest{Username: testAdmin, Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", decode[errorResponse](t, rec).Message)
	assert.Empty(t, rec.Result().Cookies())

	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	rec = env.do(t, http.MethodGet, "/api/admin/auth-status", nil, cookie)
	status := decode[authStatusResponse](t, rec)
	assert.True(t, status.Authenticated)
	assert.Equal(t, testAdmin, status.Username)

	rec = env.do(t, http.MethodPost, "/api/admin/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	rec = env.do(t, http.MethodGet, "/api/admin/auth-status", nil, cookie)
	assert.False(t, decode[authStatusResponse](t, rec).Authenticated)

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_BearerToken(t *testing.T) {
	env := newTestEnv(t, false)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_InquiryLifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	cookie := env.login(t)

	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	rec := env.do(t, http.MethodPost, "/api/contact", contactRequest{Name: "Bob", Email: "bob@example.com", Message: "Menus?"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[contactResponse](t, rec).ReferenceID

	rec = env.do(t, http.MethodGet, "/api/admin/inquiries?limit=10", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[inquiriesResponse](t, rec)
	require.Len(t, list.Inquiries, 1)
	assert.Equal(t, id, list.Inquiries[0].ID)

	path := fmt.Sprintf("/api/admin/inquiries/%d", id)
	rec = env.do(t, http.MethodPut, path+"/status", statusRequest{Status: "archived"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, path+"/status", statusRequest{Status: domain.StatusResponded}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/admin/inquiries/9999/status", statusRequest{Status: domain.StatusNew}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/inquiries/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/send-email", sendEmailRequest{
		To: "bob@example.com", Subject: "Menus", Message: "Yes!", InquiryID: &id,
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := decode[sendEmailResponse](t, rec)
	assert.True(t, sent.Success)
	assert.False(t, sent.Timestamp.IsZero())

	missing := uint(9999)
	rec = env.do(t, http.MethodPost, "/api/admin/send-email", sendEmailRequest{
		To: "bob@example.com", Subject: "Menus", Message: "Yes!", InquiryID: &missing,
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[inquiryResponse](t, rec)
	assert.Equal(t, domain.StatusResponded, got.Inquiry.Status)
	types := make([]string, 0, len(got.Inquiry.Interactions))
	for _, in := range got.Inquiry.Interactions {
		types = append(types, in.Type)
	}
	assert.Equal(t, []string{domain.InteractionEmailSent, domain.InteractionStatusUpdate, domain.InteractionAdminReply}, types)

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statsResponse](t, rec)
	assert.EqualValues(t, 1, stats.Stats.TotalInquiries)
	assert.EqualValues(t, 0, stats.Stats.PendingInquiries)
}

func TestDevRoutes(t *testing.T) {
	t.Run("hidden without debug", func(t *testing.T) {
		env := newTestEnv(t, false)
		cookie := env.login(t)
		rec := env.do(t, http.MethodPost, "/api/dev/sample-inquiries", nil, cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("debug", func(t *testing.T) {
		env := newTestEnv(t, true)

		rec := env.do(t, http.MethodPost, "/api/dev/sample-inquiries", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		cookie := env.login(t)
		rec = env.do(t, http.MethodPost, "/api/dev/sample-inquiries", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[seedResponse](t, rec).IDs, 5)

		rec = env.do(t, http.MethodPost, "/api/dev/clean-database", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 5, decode[cleanResponse](t, rec).Deleted)
		assert.Zero(t, env.inquiryCount(t))
	})
}

func edgeConfig(trusted ...string) *config.Config {
	return &config.Config{
		App: config.AppConfig{TrustedProxies: trusted},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		},
	}
}

func postContactFrom(t *testing.T, h http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(contactRequest{Name: "Rotator", Email: "rotator@example.com", Message: "hello"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.Header.Set("X-Real-IP", forwardedFor)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestContact_ForwardedHeadersIgnoredFromUntrustedPeer(t *testing.T) {
	env := newTestEnv(t, false)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(10)

	h, err := EdgeMiddleware(env.handler, edgeConfig())
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		rec := postContactFrom(t, h, "203.0.113.9:5555", fmt.Sprintf("10.0.0.%d", i))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := postContactFrom(t, h, "203.0.113.9:5555", "10.0.0.6")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.EqualValues(t, 5, env.inquiryCount(t))

	inquiries, err := env.store.ListInquiries(t.Context(), 10)
	require.NoError(t, err)
	for _, inq := range inquiries {
		assert.Equal(t, "203.0.113.9", inq.IPAddress)
	}
}

func TestContact_ForwardedHeadersHonoredFromTrustedProxy(t *testing.T) {
	env := newTestEnv(t, false)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(12)

	h, err := EdgeMiddleware(env.handler, edgeConfig("127.0.0.0/8"))
	require.NoError(t, err)

	// Six clients behind one proxy each get their own window.
	for i := 1; i <= 6; i++ {
		rec := postContactFrom(t, h, "127.0.0.1:40000", fmt.Sprintf("198.51.100.%d", i))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	inquiries, err := env.store.ListInquiries(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, inquiries, 6)
	assert.Equal(t, "198.51.100.6", inquiries[0].IPAddress)
}

func TestEdgeMiddleware_RejectsBadProxyList(t *testing.T) {
	_, err := EdgeMiddleware(http.NotFoundHandler(), edgeConfig("not-an-ip"))
	assert.Error(t, err)
}
