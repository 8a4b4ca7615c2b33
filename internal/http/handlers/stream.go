package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidgate/server/internal/access"
	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/metrics"
	"github.com/vidgate/server/internal/stream"
)

// StreamHandler runs the full authorization flow and then pipes or
// redirects the video.
type StreamHandler struct {
	service    *access.Service
	dispatcher *stream.Dispatcher
	collector  *metrics.Collector
	logger     logging.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(service *access.Service, dispatcher *stream.Dispatcher, collector *metrics.Collector, logger logging.Logger) *StreamHandler {
	return &StreamHandler{service: service, dispatcher: dispatcher, collector: collector, logger: logger}
}

// HandleStream handles GET /videos/{token}
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	rangeHeader := r.Header.Get("Range")

	decision := h.service.Authorize(r.Context(), token, access.Request{
		UserAgent:      r.UserAgent(),
		IPAddress:      getClientIP(r),
		RangeRequested: rangeHeader != "",
	})
	h.collector.ObserveDecision(string(decision.Reason))

	if !decision.Authorized {
		h.respondDenial(w, decision.Reason)
		return
	}
	if rangeHeader == "" {
		h.collector.ObserveViewConsumed()
	}

	resolution, err := h.dispatcher.Resolve(r.Context(), *decision.Video, rangeHeader)
	if err != nil {
		h.collector.ObserveUpstreamFailure(decision.Video.Provider)
		if errors.Is(err, stream.ErrNotAvailable) {
			respondWithError(w, http.StatusNotFound, "video not available")
			return
		}
		respondWithError(w, http.StatusServiceUnavailable, "video temporarily unavailable, try again")
		return
	}

	if resolution.RedirectURL != "" {
		http.Redirect(w, r, resolution.RedirectURL, http.StatusFound)
		return
	}

	h.pipe(w, r, resolution.Stream)
}

// respondDenial maps a denial reason to its HTTP shape. NotFound and
// Inactive collapse into one generic body so callers cannot probe which
// token strings exist; expiry and exhaustion stay distinguishable for
// legitimate holders.
func (h *StreamHandler) respondDenial(w http.ResponseWriter, reason access.DenialReason) {
	type denialBody struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	switch reason {
	case access.ReasonNotFound, access.ReasonInactive:
		respondJSON(w, http.StatusForbidden, denialBody{Error: "access denied", Reason: "invalid_token"})
	case access.ReasonExpired:
		respondJSON(w, http.StatusForbidden, denialBody{Error: "access denied", Reason: string(access.ReasonExpired)})
	case access.ReasonExhausted:
		respondJSON(w, http.StatusForbidden, denialBody{Error: "access denied", Reason: string(access.ReasonExhausted)})
	case access.ReasonDeviceCapExceeded:
		respondJSON(w, http.StatusForbidden, denialBody{Error: "access denied", Reason: string(access.ReasonDeviceCapExceeded)})
	case access.ReasonUpstreamUnavailable:
		respondJSON(w, http.StatusServiceUnavailable, denialBody{Error: "video temporarily unavailable, try again", Reason: string(access.ReasonUpstreamUnavailable)})
	default:
		respondJSON(w, http.StatusServiceUnavailable, denialBody{Error: "service unavailable", Reason: string(access.ReasonServiceUnavailable)})
	}
}

func (h *StreamHandler) pipe(w http.ResponseWriter, r *http.Request, handle *stream.StreamHandle) {
	defer handle.Body.Close()

	w.Header().Set("Content-Type", handle.ContentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if handle.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(handle.ContentLength, 10))
	}

	if handle.StatusCode == http.StatusPartialContent {
		if handle.ContentRange != "" {
			w.Header().Set("Content-Range", handle.ContentRange)
		}
		w.WriteHeader(http.StatusPartialContent)
	}

	// A disconnected client surfaces as a copy error; the view accounting
	// already happened and is not rolled back.
	if _, err := io.Copy(w, handle.Body); err != nil {
		h.logger.WithError(err).Debug("stream copy interrupted")
	}
}
