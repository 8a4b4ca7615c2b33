package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidgate/server/internal/access"
	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/model"
	"github.com/vidgate/server/internal/repo"
)

const (
	maxViewsLimit   = 100
	maxDevicesLimit = 5
	maxBulkCount    = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// TokenHandler handles token issuance, validation and management endpoints.
type TokenHandler struct {
	tokens  repo.TokenRepo
	service *access.Service
	baseURL string
	logger  logging.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokens repo.TokenRepo, service *access.Service, baseURL string, logger logging.Logger) *TokenHandler {
	return &TokenHandler{tokens: tokens, service: service, baseURL: baseURL, logger: logger}
}

// createTokenRequest is the request body for POST /api/tokens
type createTokenRequest struct {
	Email            string `json:"email"`
	VideoID          string `json:"videoId"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
	MaxViews         int    `json:"maxViews"`
	MaxDevices       int    `json:"maxDevices"`
	Notes            string `json:"notes"`
	ShareBlocked     *bool  `json:"shareBlocked"`
}

// createTokenResponse is the JSON response for token creation
type createTokenResponse struct {
	Token     string     `json:"token"`
	WatchURL  string     `json:"watchUrl"`
	ExpiresAt *time.Time `json:"expiresAt"`
	MaxViews  int        `json:"maxViews"`
}

type fieldsError struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

func (req *createTokenRequest) normalize() (repo.CreateTokenParams, string) {
	req.Email = strings.TrimSpace(req.Email)
	req.VideoID = strings.TrimSpace(req.VideoID)

	if req.VideoID == "" {
		return repo.CreateTokenParams{}, "videoId is required"
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return repo.CreateTokenParams{}, "invalid email format"
	}
	if req.MaxViews == 0 {
		req.MaxViews = 1
	}
	if req.MaxViews != model.UnlimitedViews && (req.MaxViews < 1 || req.MaxViews > maxViewsLimit) {
		return repo.CreateTokenParams{}, "maxViews must be between 1 and 100"
	}
	if req.MaxDevices == 0 {
		req.MaxDevices = 1
	}
	if req.MaxDevices < 1 || req.MaxDevices > maxDevicesLimit {
		return repo.CreateTokenParams{}, "maxDevices must be between 1 and 5"
	}
	if req.ExpiresInMinutes < 0 {
		return repo.CreateTokenParams{}, "expiresInMinutes must not be negative"
	}

	p := repo.CreateTokenParams{
		VideoID:      req.VideoID,
		MaxViews:     req.MaxViews,
		MaxDevices:   req.MaxDevices,
		ShareBlocked: true,
	}
	if req.Email != "" {
		p.Email = &req.Email
	}
	if req.Notes != "" {
		notes := req.Notes
		p.Notes = &notes
	}
	if req.ExpiresInMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(req.ExpiresInMinutes) * time.Minute)
		p.ExpiresAt = &expiresAt
	}
	if req.ShareBlocked != nil {
		p.ShareBlocked = *req.ShareBlocked
	}
	return p, ""
}

// HandleCreate handles POST /api/tokens
func (h *TokenHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params, problem := req.normalize()
	if problem != "" {
		respondJSON(w, http.StatusBadRequest, fieldsError{
			Error:    problem,
			Required: []string{"videoId"},
			Optional: []string{"email", "expiresInMinutes", "maxViews", "maxDevices", "notes", "shareBlocked"},
		})
		return
	}

	token, err := access.GenerateToken()
	if err != nil {
		h.logger.WithError(err).Error("token generation failed")
		respondWithError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	params.Token = token

	created, err := h.tokens.Create(r.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("token insert failed")
		respondWithError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	respondJSON(w, http.StatusCreated, createTokenResponse{
		Token:     created.Token,
		WatchURL:  h.watchURL(r, created.Token),
		ExpiresAt: created.ExpiresAt,
		MaxViews:  created.MaxViews,
	})
}

// bulkCreateRequest is the request body for POST /api/tokens/bulk
type bulkCreateRequest struct {
	Count int `json:"count"`
	createTokenRequest
}

// HandleCreateBulk handles POST /api/tokens/bulk. Useful for events: many
// tokens sharing the same limits in one call.
func (h *TokenHandler) HandleCreateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 1 || req.Count > maxBulkCount {
		respondWithError(w, http.StatusBadRequest, "count must be between 1 and 100")
		return
	}

	params, problem := req.normalize()
	if problem != "" {
		respondJSON(w, http.StatusBadRequest, fieldsError{
			Error:    problem,
			Required: []string{"videoId"},
			Optional: []string{"count", "email", "expiresInMinutes", "maxViews", "maxDevices", "notes", "shareBlocked"},
		})
		return
	}

	created := make([]createTokenResponse, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		token, err := access.GenerateToken()
		if err != nil {
			h.logger.WithError(err).Error("token generation failed")
			respondWithError(w, http.StatusInternalServerError, "failed to create tokens")
			return
		}
		p := params
		p.Token = token
		tok, err := h.tokens.Create(r.Context(), p)
		if err != nil {
			h.logger.WithError(err).WithField("created", len(created)).Error("bulk token insert failed")
			respondWithError(w, http.StatusInternalServerError, "failed to create tokens")
			return
		}
		created = append(created, createTokenResponse{
			Token:     tok.Token,
			WatchURL:  h.watchURL(r, tok.Token),
			ExpiresAt: tok.ExpiresAt,
			MaxViews:  tok.MaxViews,
		})
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"total":  len(created),
		"tokens": created,
	})
}

// validateResponse is the JSON response for GET /api/tokens/{token}
type validateResponse struct {
	Valid        bool       `json:"valid"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	MaxViews     int        `json:"maxViews"`
	CurrentViews int        `json:"currentViews"`
}

// HandleValidate handles GET /api/tokens/{token}. Read-only: no counter is
// touched and no binding is registered.
func (h *TokenHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	tok, validity, err := h.service.Check(r.Context(), token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.WithError(err).Error("token check failed")
		respondWithError(w, http.StatusServiceUnavailable, "could not verify token")
		return
	}

	respondJSON(w, http.StatusOK, validateResponse{
		Valid:        validity.OK(),
		ExpiresAt:    tok.ExpiresAt,
		MaxViews:     tok.MaxViews,
		CurrentViews: tok.CurrentViews,
	})
}

// tokenView is the admin-facing token representation.
type tokenView struct {
	Token          string     `json:"token"`
	Email          *string    `json:"email"`
	VideoID        string     `json:"videoId"`
	Notes          *string    `json:"notes"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	MaxViews       int        `json:"maxViews"`
	CurrentViews   int        `json:"currentViews"`
	MaxDevices     int        `json:"maxDevices"`
	CurrentDevices int        `json:"currentDevices"`
	IsActive       bool       `json:"isActive"`
	ShareBlocked   bool       `json:"shareBlocked"`
}

func toTokenView(t model.AccessToken) tokenView {
	return tokenView{
		Token:          t.Token,
		Email:          t.Email,
		VideoID:        t.VideoID,
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt,
		ExpiresAt:      t.ExpiresAt,
		MaxViews:       t.MaxViews,
		CurrentViews:   t.CurrentViews,
		MaxDevices:     t.MaxDevices,
		CurrentDevices: t.CurrentDevices,
		IsActive:       t.IsActive,
		ShareBlocked:   t.ShareBlocked,
	}
}

// HandleList handles GET /api/tokens
func (h *TokenHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("token list failed")
		respondWithError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, toTokenView(t))
	}
	respondJSON(w, http.StatusOK, views)
}

// HandleStats handles GET /api/tokens/stats
func (h *TokenHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tokens.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("token stats failed")
		respondWithError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"totalTokens":    stats.TotalTokens,
		"activeTokens":   stats.ActiveTokens,
		"inactiveTokens": stats.InactiveTokens,
		"totalViews":     stats.TotalViews,
	})
}

// HandleStatsFor handles GET /api/tokens/{token}/stats
func (h *TokenHandler) HandleStatsFor(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	stats, err := h.tokens.StatsFor(r.Context(), token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.WithError(err).Error("token stats failed")
		respondWithError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":         toTokenView(stats.Token),
		"uniqueDevices": stats.UniqueDevices,
		"totalViews":    stats.TotalViews,
	})
}

// HandleRevoke handles DELETE /api/tokens/{token}: flips the kill-switch
// and keeps the record and its audit trail.
func (h *TokenHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.tokens.Deactivate(r.Context(), token); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.WithError(err).Error("token revoke failed")
		respondWithError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "token revoked"})
}

// HandlePurge handles DELETE /api/tokens/{token}/purge: physical removal;
// bindings and view logs cascade with the token.
func (h *TokenHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.tokens.Delete(r.Context(), token); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.WithError(err).Error("token purge failed")
		respondWithError(w, http.StatusInternalServerError, "failed to delete token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "token deleted"})
}

func (h *TokenHandler) watchURL(r *http.Request, token string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/videos/" + token
}
