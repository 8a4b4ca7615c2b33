package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidgate/server/internal/access"
	"github.com/vidgate/server/internal/auth"
	"github.com/vidgate/server/internal/http/handlers"
	"github.com/vidgate/server/internal/metrics"
	"github.com/vidgate/server/internal/middleware"
	"github.com/vidgate/server/internal/model"
	"github.com/vidgate/server/internal/repo"
	"github.com/vidgate/server/internal/stream"
)

const (
	testJWTSecret = "router-test-secret-at-least-32-chars"
	testAdminKey  = "router-test-admin-key"
)

// memStore is an in-memory stand-in for all repositories, good enough to
// drive the full router without Postgres.
type memStore struct {
	mu      sync.Mutex
	tokens  map[string]model.AccessToken
	videos  map[string]model.VideoDescriptor
	devices map[uuid.UUID]map[string]bool
	logs    []model.ViewLogEntry
}

func newMemStore() *memStore {
	return &memStore{
		tokens:  make(map[string]model.AccessToken),
		videos:  make(map[string]model.VideoDescriptor),
		devices: make(map[uuid.UUID]map[string]bool),
	}
}

func (m *memStore) Create(_ context.Context, p repo.CreateTokenParams) (model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := model.AccessToken{
		ID:           uuid.New(),
		Token:        p.Token,
		Email:        p.Email,
		VideoID:      p.VideoID,
		Notes:        p.Notes,
		CreatedAt:    time.Now(),
		ExpiresAt:    p.ExpiresAt,
		MaxViews:     p.MaxViews,
		MaxDevices:   p.MaxDevices,
		IsActive:     true,
		ShareBlocked: p.ShareBlocked,
	}
	m.tokens[p.Token] = tok
	return tok, nil
}

func (m *memStore) GetByToken(_ context.Context, token string) (model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[token]
	if !ok {
		return model.AccessToken{}, repo.ErrNotFound
	}
	return tok, nil
}

func (m *memStore) List(context.Context) ([]model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AccessToken, 0, len(m.tokens))
	for _, tok := range m.tokens {
		out = append(out, tok)
	}
	return out, nil
}

func (m *memStore) ConsumeView(_ context.Context, tokenID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, tok := range m.tokens {
		if tok.ID == tokenID {
			if tok.CurrentViews >= tok.MaxViews {
				return false, nil
			}
			tok.CurrentViews++
			m.tokens[key] = tok
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Deactivate(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[token]
	if !ok {
		return repo.ErrNotFound
	}
	tok.IsActive = false
	m.tokens[token] = tok
	return nil
}

func (m *memStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return repo.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *memStore) Stats(context.Context) (model.GlobalTokenStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s model.GlobalTokenStats
	for _, tok := range m.tokens {
		s.TotalTokens++
		if tok.IsActive {
			s.ActiveTokens++
		} else {
			s.InactiveTokens++
		}
		s.TotalViews += tok.CurrentViews
	}
	return s, nil
}

func (m *memStore) StatsFor(_ context.Context, token string) (model.TokenStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[token]
	if !ok {
		return model.TokenStats{}, repo.ErrNotFound
	}
	views := 0
	for _, e := range m.logs {
		if e.TokenID == tok.ID {
			views++
		}
	}
	return model.TokenStats{Token: tok, UniqueDevices: len(m.devices[tok.ID]), TotalViews: views}, nil
}

func (m *memStore) Admit(_ context.Context, tokenID uuid.UUID, fingerprint string, _, _ *string, maxDevices int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bound := m.devices[tokenID]
	if bound == nil {
		bound = make(map[string]bool)
		m.devices[tokenID] = bound
	}
	if bound[fingerprint] {
		return true, nil
	}
	if len(bound) >= maxDevices {
		return false, nil
	}
	bound[fingerprint] = true
	return true, nil
}

func (m *memStore) Append(_ context.Context, e model.ViewLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, e)
	return nil
}

func (m *memStore) GetByVideoID(_ context.Context, videoID string) (model.VideoDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok {
		return model.VideoDescriptor{}, repo.ErrNotFound
	}
	return v, nil
}

func (m *memStore) CreateVideo(_ context.Context, p repo.CreateVideoParams) (model.VideoDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := model.VideoDescriptor{
		ID:          uuid.New(),
		VideoID:     p.VideoID,
		Title:       p.Title,
		Description: p.Description,
		Provider:    p.Provider,
		ProviderRef: p.ProviderRef,
		FileSize:    p.FileSize,
		Duration:    p.Duration,
		Notes:       p.Notes,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.videos[p.VideoID] = v
	return v, nil
}

// videoRepoAdapter renames CreateVideo to the VideoRepo method set.
type videoRepoAdapter struct{ *memStore }

func (a videoRepoAdapter) Create(ctx context.Context, p repo.CreateVideoParams) (model.VideoDescriptor, error) {
	return a.CreateVideo(ctx, p)
}

func (a videoRepoAdapter) List(_ context.Context, activeOnly bool) ([]model.VideoDescriptor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.VideoDescriptor, 0, len(a.videos))
	for _, v := range a.videos {
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (a videoRepoAdapter) SetActive(_ context.Context, videoID string, active bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.videos[videoID]
	if !ok {
		return repo.ErrNotFound
	}
	v.IsActive = active
	a.videos[videoID] = v
	return nil
}

func (a videoRepoAdapter) UpdateNotes(_ context.Context, videoID, notes string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.videos[videoID]
	if !ok {
		return repo.ErrNotFound
	}
	v.Notes = notes
	a.videos[videoID] = v
	return nil
}

func (a videoRepoAdapter) Delete(_ context.Context, videoID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.videos[videoID]; !ok {
		return repo.ErrNotFound
	}
	delete(a.videos, videoID)
	return nil
}

func (a videoRepoAdapter) Stats(context.Context) (model.VideoStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var s model.VideoStats
	for _, v := range a.videos {
		s.TotalVideos++
		if v.IsActive {
			s.ActiveVideos++
		} else {
			s.InactiveVideos++
		}
		s.TotalSize += v.FileSize
	}
	return s, nil
}

type testEnv struct {
	router http.Handler
	store  *memStore
	jwt    *auth.JWTService
}

func newTestEnv(t *testing.T, cooldown time.Duration) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := newMemStore()
	service := access.NewService(store, store, store, store, logger)
	jwtService := auth.NewJWTService(testJWTSecret)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	dispatcher := stream.NewDispatcher(logger, map[string]stream.Resolver{
		model.ProviderVimeo: stream.NewVimeoResolver(""),
	})

	router := NewRouter(RouterDeps{
		Admin:   handlers.NewAdminHandler(jwtService, testAdminKey, logger),
		Tokens:  handlers.NewTokenHandler(store, service, "http://watch.test", logger),
		Videos:  handlers.NewVideoHandler(videoRepoAdapter{store}, logger),
		Stream:  handlers.NewStreamHandler(service, dispatcher, collector, logger),
		Health:  handlers.NewHealthHandler(nil),
		JWT:     jwtService,
		Metrics: collector,

		Cooldown:         middleware.NewMemoryCooldown(),
		PlaybackCooldown: cooldown,
		RateLimitWindow:  time.Minute,
		RateLimitMax:     10000,

		Logger: logger,
	})
	return &testEnv{router: router, store: store, jwt: jwtService}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, adminToken string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.9.8.7:51234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"apiKey": testAdminKey}, "")
	require.Equal(t, http.StatusOK, rec.Code, "admin login must succeed; body: %s", rec.Body.String())
	var res struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "bearer", res.TokenType)
	return res.AccessToken
}

func (e *testEnv) seedVideo(t *testing.T, videoID string) {
	t.Helper()
	_, err := e.store.CreateVideo(context.Background(), repo.CreateVideoParams{
		VideoID:     videoID,
		Title:       "Seeded",
		Provider:    model.ProviderVimeo,
		ProviderRef: "424242",
	})
	require.NoError(t, err)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func TestRouter_health(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])
}

func TestRouter_adminLoginRejectsBadKey(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"apiKey": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_managementRequiresJWT(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodGet, "/api/tokens", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tokens", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tokens", nil, env.login(t))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_createAndValidateToken(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{
		"videoId":          "vid-1",
		"maxViews":         3,
		"maxDevices":       2,
		"expiresInMinutes": 60,
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "http://watch.test/videos/"+token, body["watchUrl"])
	assert.Equal(t, float64(3), body["maxViews"])

	expiresAt, err := time.Parse(time.RFC3339Nano, body["expiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	// Public validation endpoint, no auth required and no side effects.
	rec = env.do(t, http.MethodGet, "/api/tokens/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	check := decodeBody(t, rec)
	assert.Equal(t, true, check["valid"])
	assert.Equal(t, float64(0), check["currentViews"])
}

func TestRouter_createTokenValidation(t *testing.T) {
	env := newTestEnv(t, 0)
	adminToken := env.login(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing videoId", map[string]any{"maxViews": 3}},
		{"bad email", map[string]any{"videoId": "vid-1", "email": "not-an-email"}},
		{"maxViews too large", map[string]any{"videoId": "vid-1", "maxViews": 101}},
		{"maxDevices too large", map[string]any{"videoId": "vid-1", "maxDevices": 6}},
		{"negative expiry", map[string]any{"videoId": "vid-1", "expiresInMinutes": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/tokens", tt.body, adminToken)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
		})
	}

	// The sentinel passes the bounds check.
	env.seedVideo(t, "vid-1")
	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{
		"videoId":  "vid-1",
		"maxViews": model.UnlimitedViews,
	}, adminToken)
	assert.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
}

func TestRouter_bulkCreate(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens/bulk", map[string]any{
		"count":   5,
		"videoId": "vid-1",
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, float64(5), body["total"])
	tokens, _ := body["tokens"].([]any)
	assert.Len(t, tokens, 5)

	rec = env.do(t, http.MethodPost, "/api/tokens/bulk", map[string]any{
		"count":   101,
		"videoId": "vid-1",
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_streamRedirectsAndCountsViews(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1", "maxViews": 2}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://player.vimeo.com/video/424242", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/tokens/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["currentViews"])
}

func TestRouter_streamDenials(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1", "maxViews": 1}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	// Unknown token and revoked token share one generic body.
	rec = env.do(t, http.MethodGet, "/videos/nonexistent-token", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["reason"])

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "exhausted", decodeBody(t, rec)["reason"])

	rec = env.do(t, http.MethodDelete, "/api/tokens/"+token, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["reason"])
}

func TestRouter_streamDeviceCap(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1", "maxViews": 100, "maxDevices": 1}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/videos/"+token, nil)
	req.RemoteAddr = "10.0.0.1:1000"
	req.Header.Set("User-Agent", "PlayerA")
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusFound, rec2.Code)

	req = httptest.NewRequest(http.MethodGet, "/videos/"+token, nil)
	req.RemoteAddr = "10.0.0.2:1000"
	req.Header.Set("User-Agent", "PlayerB")
	rec2 = httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusForbidden, rec2.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &body))
	assert.Equal(t, "device_limit_reached", body["reason"])
}

func TestRouter_streamCooldown(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1", "maxViews": 100}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Range follow-ups are exempt from the cooldown.
	req := httptest.NewRequest(http.MethodGet, "/videos/"+token, nil)
	req.RemoteAddr = "10.9.8.7:51234"
	req.Header.Set("Range", "bytes=0-1023")
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusFound, rec2.Code)
}

func TestRouter_revokeAndPurge(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1"}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = env.do(t, http.MethodDelete, "/api/tokens/"+token, nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Revoked tokens still validate (as invalid), they are not gone.
	rec = env.do(t, http.MethodGet, "/api/tokens/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["valid"])

	rec = env.do(t, http.MethodDelete, "/api/tokens/"+token+"/purge", nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tokens/"+token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_videoCatalog(t *testing.T) {
	env := newTestEnv(t, 0)
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/videos", map[string]any{
		"videoId":     "vid-new",
		"title":       "New Video",
		"provider":    "vimeo",
		"providerRef": "777",
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/videos", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "vid-new", list[0]["videoId"])

	rec = env.do(t, http.MethodPatch, "/api/videos/vid-new/active", map[string]any{"isActive": false}, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	// Inactive videos drop out of the default listing.
	rec = env.do(t, http.MethodGet, "/api/videos", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 0)

	rec = env.do(t, http.MethodGet, "/api/videos?all=1", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = env.do(t, http.MethodPost, "/api/videos", map[string]any{"videoId": "x", "title": "X", "provider": "youtube"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_tokenStats(t *testing.T) {
	env := newTestEnv(t, 0)
	env.seedVideo(t, "vid-1")
	adminToken := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"videoId": "vid-1", "maxViews": 5}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = env.do(t, http.MethodGet, "/videos/"+token, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tokens/"+token+"/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["uniqueDevices"])
	assert.Equal(t, float64(1), body["totalViews"])

	rec = env.do(t, http.MethodGet, "/api/tokens/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["totalTokens"])
	assert.Equal(t, float64(1), body["totalViews"])
}
