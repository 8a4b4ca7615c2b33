package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/model"
	"github.com/vidgate/server/internal/repo"
)

// VideoHandler handles catalog management endpoints.
type VideoHandler struct {
	videos repo.VideoRepo
	logger logging.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videos repo.VideoRepo, logger logging.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, logger: logger}
}

type videoView struct {
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"providerRef"`
	FileSize    int64     `json:"fileSize"`
	Duration    int       `json:"duration"`
	Notes       string    `json:"notes"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toVideoView(v model.VideoDescriptor) videoView {
	return videoView{
		VideoID:     v.VideoID,
		Title:       v.Title,
		Description: v.Description,
		Provider:    v.Provider,
		ProviderRef: v.ProviderRef,
		FileSize:    v.FileSize,
		Duration:    v.Duration,
		Notes:       v.Notes,
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
	}
}

// HandleList handles GET /api/videos
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	videos, err := h.videos.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.WithError(err).Error("video list failed")
		respondWithError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	views := make([]videoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, toVideoView(v))
	}
	respondJSON(w, http.StatusOK, views)
}

type createVideoRequest struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"providerRef"`
	FileSize    int64  `json:"fileSize"`
	Duration    int    `json:"duration"`
	Notes       string `json:"notes"`
}

// HandleCreate handles POST /api/videos
func (h *VideoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.VideoID = strings.TrimSpace(req.VideoID)
	req.Title = strings.TrimSpace(req.Title)
	if req.VideoID == "" || req.Title == "" {
		respondWithError(w, http.StatusBadRequest, "videoId and title are required")
		return
	}
	if req.Provider == "" {
		req.Provider = model.ProviderDrive
	}
	if req.Provider != model.ProviderDrive && req.Provider != model.ProviderVimeo {
		respondWithError(w, http.StatusBadRequest, "provider must be drive or vimeo")
		return
	}

	video, err := h.videos.Create(r.Context(), repo.CreateVideoParams{
		VideoID:     req.VideoID,
		Title:       req.Title,
		Description: req.Description,
		Provider:    req.Provider,
		ProviderRef: req.ProviderRef,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.WithError(err).Error("video insert failed")
		respondWithError(w, http.StatusInternalServerError, "failed to add video")
		return
	}

	respondJSON(w, http.StatusCreated, toVideoView(video))
}

// HandleSetActive handles PATCH /api/videos/{videoId}/active
func (h *VideoHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		respondWithError(w, http.StatusBadRequest, "isActive boolean is required")
		return
	}

	if err := h.videos.SetActive(r.Context(), videoID, *req.IsActive); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.WithError(err).Error("video toggle failed")
		respondWithError(w, http.StatusInternalServerError, "failed to update video")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "video updated"})
}

// HandleUpdateNotes handles PATCH /api/videos/{videoId}/notes
func (h *VideoHandler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	var req struct {
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Notes == nil {
		respondWithError(w, http.StatusBadRequest, "notes string is required")
		return
	}

	if err := h.videos.UpdateNotes(r.Context(), videoID, *req.Notes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.WithError(err).Error("video notes update failed")
		respondWithError(w, http.StatusInternalServerError, "failed to update video")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "notes updated"})
}

// HandleRemove handles DELETE /api/videos/{videoId}: soft delete, the
// record stays for existing tokens' audit trails.
func (h *VideoHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	if err := h.videos.SetActive(r.Context(), videoID, false); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.WithError(err).Error("video remove failed")
		respondWithError(w, http.StatusInternalServerError, "failed to remove video")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "video removed"})
}

// HandlePurge handles DELETE /api/videos/{videoId}/purge: permanent removal.
func (h *VideoHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	if err := h.videos.Delete(r.Context(), videoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.WithError(err).Error("video purge failed")
		respondWithError(w, http.StatusInternalServerError, "failed to delete video")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "video deleted"})
}

// HandleStats handles GET /api/videos/stats
func (h *VideoHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.videos.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("video stats failed")
		respondWithError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"totalVideos":    stats.TotalVideos,
		"activeVideos":   stats.ActiveVideos,
		"inactiveVideos": stats.InactiveVideos,
		"totalSize":      stats.TotalSize,
	})
}
