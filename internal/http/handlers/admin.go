package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidgate/server/internal/auth"
	"github.com/vidgate/server/internal/logging"
)

// AdminHandler exchanges the configured admin API key for a session JWT.
type AdminHandler struct {
	jwtService *auth.JWTService
	apiKey     string
	logger     logging.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(jwtService *auth.JWTService, apiKey string, logger logging.Logger) *AdminHandler {
	return &AdminHandler{jwtService: jwtService, apiKey: apiKey, logger: logger}
}

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// HandleLogin handles POST /api/admin/login
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.APIKey = strings.TrimSpace(req.APIKey)
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		h.logger.WithField("ip", getClientIP(r)).Warn("admin login rejected")
		respondWithError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := h.jwtService.SignAdminToken()
	if err != nil {
		h.logger.WithError(err).Error("failed to sign admin token")
		respondWithError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}
