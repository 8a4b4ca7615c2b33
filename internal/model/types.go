package model

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedViews is the sentinel max_views value for effectively permanent
// tokens. The exhaustion check still applies uniformly; it just never binds.
const UnlimitedViews = 999999

// AccessToken is the root entity: an opaque bearer credential granting
// access to one video under time, view and device limits.
type AccessToken struct {
	ID             uuid.UUID
	Token          string
	Email          *string
	VideoID        string
	Notes          *string
	CreatedAt      time.Time
	ExpiresAt      *time.Time // nil = never expires
	MaxViews       int
	CurrentViews   int
	MaxDevices     int
	CurrentDevices int
	IsActive       bool
	ShareBlocked   bool
}

// Exhausted reports whether the token's view budget is used up.
func (t AccessToken) Exhausted() bool {
	return t.CurrentViews >= t.MaxViews
}

// DeviceBinding records one distinct device seen for a token.
// Unique on (TokenID, Fingerprint); re-sightings refresh LastAccess only.
type DeviceBinding struct {
	ID          uuid.UUID
	TokenID     uuid.UUID
	Fingerprint string
	IPAddress   *string
	UserAgent   *string
	FirstAccess time.Time
	LastAccess  time.Time
}

// ViewLogEntry is an append-only audit record of one authorized view.
type ViewLogEntry struct {
	ID          uuid.UUID
	TokenID     uuid.UUID
	Email       *string
	VideoID     string
	ViewedAt    time.Time
	IPAddress   *string
	UserAgent   *string
	Fingerprint string
}

// Video providers understood by the stream dispatcher.
const (
	ProviderDrive = "drive"
	ProviderVimeo = "vimeo"
)

// VideoDescriptor describes one video in the catalog. Soft-deleted via
// IsActive=false; physical removal only through an explicit purge.
type VideoDescriptor struct {
	ID          uuid.UUID
	VideoID     string
	Title       string
	Description string
	Provider    string
	ProviderRef string
	FileSize    int64
	Duration    int
	Notes       string
	IsActive    bool
	CreatedAt   time.Time
}

// TokenStats combines a token with its usage aggregates.
type TokenStats struct {
	Token         AccessToken
	UniqueDevices int
	TotalViews    int
}

// GlobalTokenStats summarizes the whole token table.
type GlobalTokenStats struct {
	TotalTokens    int
	ActiveTokens   int
	InactiveTokens int
	TotalViews     int
}

// VideoStats summarizes the video catalog.
type VideoStats struct {
	TotalVideos    int
	ActiveVideos   int
	InactiveVideos int
	TotalSize      int64
}
