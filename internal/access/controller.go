package access

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/model"
	"github.com/vidgate/server/internal/repo"
)

// Request carries the connection metadata for one authorization attempt.
// RangeRequested marks a range-partitioned follow-up request: many physical
// requests materialize one logical view, and only the initial (non-range)
// request consumes a view slot.
type Request struct {
	UserAgent      string
	IPAddress      string
	RangeRequested bool
}

// Decision is the authorization result. When Authorized is false, Reason
// holds the stable denial code; Token and Video are populated on success.
type Decision struct {
	Authorized bool
	Reason     DenialReason
	Token      *model.AccessToken
	Video      *model.VideoDescriptor
}

func denied(reason DenialReason) Decision {
	return Decision{Reason: reason}
}

// TokenStore is the slice of the token repository the controller needs.
type TokenStore interface {
	GetByToken(ctx context.Context, token string) (model.AccessToken, error)
	ConsumeView(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// DeviceStore admits devices against the per-token cap.
type DeviceStore interface {
	Admit(ctx context.Context, tokenID uuid.UUID, fingerprint string, ip, userAgent *string, maxDevices int) (bool, error)
}

// ViewLogStore appends audit records.
type ViewLogStore interface {
	Append(ctx context.Context, e model.ViewLogEntry) error
}

// VideoStore resolves video descriptors.
type VideoStore interface {
	GetByVideoID(ctx context.Context, videoID string) (model.VideoDescriptor, error)
}

// Service orchestrates token lookup, validity evaluation, device binding,
// view accounting and audit logging. All token-store mutation flows through
// the stores' atomic operations; the service itself holds no mutable state
// and is safe for concurrent use.
type Service struct {
	tokens  TokenStore
	devices DeviceStore
	logs    ViewLogStore
	videos  VideoStore
	logger  logging.Logger
	now     func() time.Time
}

// NewService creates a new access service.
func NewService(tokens TokenStore, devices DeviceStore, logs ViewLogStore, videos VideoStore, logger logging.Logger) *Service {
	return &Service{
		tokens:  tokens,
		devices: devices,
		logs:    logs,
		videos:  videos,
		logger:  logger,
		now:     time.Now,
	}
}

// Check fetches a token and evaluates it without any side effect.
func (s *Service) Check(ctx context.Context, token string) (model.AccessToken, Validity, error) {
	tok, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return model.AccessToken{}, Validity{}, err
	}
	return tok, Evaluate(tok, s.now()), nil
}

// Authorize runs the full access-control flow for one request.
//
// Inactive and expiry gate every request. Exhaustion is not pre-checked:
// for initial requests it is enforced by the conditional view-increment
// (zero rows affected = lost the race or already exhausted), and for range
// follow-ups it does not apply at all, since their logical view was paid
// for by the initial request. Device-cap and exhaustion are therefore
// independent gates and the device check runs first.
//
// Storage failures before the decision fail closed (ServiceUnavailable);
// audit-side writes after the decision fail open and are only logged.
func (s *Service) Authorize(ctx context.Context, token string, req Request) Decision {
	tok, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return denied(ReasonNotFound)
		}
		s.logger.WithError(err).Error("token lookup failed")
		return denied(ReasonServiceUnavailable)
	}

	v := Evaluate(tok, s.now())
	if v.Inactive {
		return denied(ReasonInactive)
	}
	if v.Expired {
		return denied(ReasonExpired)
	}

	fingerprint := Fingerprint(req.UserAgent, req.IPAddress)
	deviceCap := tok.MaxDevices
	if !tok.ShareBlocked {
		// Binding is still recorded for audit, but never enforced.
		deviceCap = math.MaxInt32
	}
	admitted, err := s.devices.Admit(ctx, tok.ID, fingerprint, optional(req.IPAddress), optional(req.UserAgent), deviceCap)
	if err != nil {
		s.logger.WithError(err).Error("device admission failed")
		return denied(ReasonServiceUnavailable)
	}
	if !admitted {
		return denied(ReasonDeviceCapExceeded)
	}

	video, err := s.videos.GetByVideoID(ctx, tok.VideoID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return denied(ReasonUpstreamUnavailable)
		}
		s.logger.WithError(err).Error("video lookup failed")
		return denied(ReasonServiceUnavailable)
	}
	if !video.IsActive {
		return denied(ReasonUpstreamUnavailable)
	}

	if !req.RangeRequested {
		consumed, err := s.tokens.ConsumeView(ctx, tok.ID)
		if err != nil {
			s.logger.WithError(err).Error("view increment failed")
			return denied(ReasonServiceUnavailable)
		}
		if !consumed {
			return denied(ReasonExhausted)
		}
		tok.CurrentViews++

		if err := s.logs.Append(ctx, model.ViewLogEntry{
			TokenID:     tok.ID,
			Email:       tok.Email,
			VideoID:     tok.VideoID,
			IPAddress:   optional(req.IPAddress),
			UserAgent:   optional(req.UserAgent),
			Fingerprint: fingerprint,
		}); err != nil {
			// The user already has their authorized stream; an audit gap is
			// a logged inconsistency, not a denial.
			s.logger.WithError(err).WithField("token_id", tok.ID).Warn("view log append failed")
		}
	}

	return Decision{Authorized: true, Token: &tok, Video: &video}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
