package stream

import (
	"context"
	"errors"
	"io"

	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/model"
)

// ErrNotAvailable signals that the upstream cannot serve the video right
// now. The HTTP layer translates it into a user-facing 404/503.
var ErrNotAvailable = errors.New("video not available upstream")

// StreamHandle is a pipeable upstream byte stream. StatusCode and
// ContentRange are passed through so partial-content responses survive
// the proxy hop.
type StreamHandle struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	StatusCode    int
	ContentRange  string
}

// Resolution is the outcome of resolving a video: exactly one of Stream or
// RedirectURL is set.
type Resolution struct {
	Stream      *StreamHandle
	RedirectURL string
}

// Resolver obtains a stream or redirect target for one provider.
type Resolver interface {
	Resolve(ctx context.Context, video model.VideoDescriptor, rangeHeader string) (*Resolution, error)
}

// Dispatcher routes resolution to the provider named by the video record.
// The access core never learns provider identity; it hands over the
// provider-neutral descriptor and gets a Resolution back.
type Dispatcher struct {
	resolvers map[string]Resolver
	logger    logging.Logger
}

// NewDispatcher creates a dispatcher over the given provider resolvers.
func NewDispatcher(logger logging.Logger, resolvers map[string]Resolver) *Dispatcher {
	return &Dispatcher{resolvers: resolvers, logger: logger}
}

// Resolve looks up the provider resolver and delegates.
func (d *Dispatcher) Resolve(ctx context.Context, video model.VideoDescriptor, rangeHeader string) (*Resolution, error) {
	resolver, ok := d.resolvers[video.Provider]
	if !ok {
		d.logger.WithField("provider", video.Provider).Warn("no resolver for provider")
		return nil, ErrNotAvailable
	}
	res, err := resolver.Resolve(ctx, video, rangeHeader)
	if err != nil {
		d.logger.WithError(err).WithFields(logging.Fields{
			"provider": video.Provider,
			"video_id": video.VideoID,
		}).Warn("upstream resolution failed")
		return nil, err
	}
	return res, nil
}
