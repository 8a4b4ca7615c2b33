package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidgate/server/internal/model"
)

// VimeoResolver redirects players to the Vimeo embed endpoint. Vimeo hosts
// the bytes itself, so there is nothing to proxy; the resolution is always
// a redirect target.
type VimeoResolver struct {
	playerBase string
}

// NewVimeoResolver creates a Vimeo resolver. playerBase defaults to the
// public player endpoint when empty.
func NewVimeoResolver(playerBase string) *VimeoResolver {
	if playerBase == "" {
		playerBase = "https://player.vimeo.com/video"
	}
	return &VimeoResolver{playerBase: strings.TrimRight(playerBase, "/")}
}

// Resolve builds the player redirect URL from the provider reference.
func (r *VimeoResolver) Resolve(_ context.Context, video model.VideoDescriptor, _ string) (*Resolution, error) {
	if video.ProviderRef == "" {
		return nil, fmt.Errorf("video %s has no vimeo reference: %w", video.VideoID, ErrNotAvailable)
	}
	return &Resolution{RedirectURL: fmt.Sprintf("%s/%s", r.playerBase, video.ProviderRef)}, nil
}
