package remote

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/backend"
)

// Slot is where a ready connection gets installed; query.Client is one.
type Slot interface {
	Bind(backend.Backend)
	Unbind()
	Ready() bool
}

// Watch pings the remote every interval until ctx ends, binding c into
// slot while it answers and unbinding it when it stops.
func (c *Client) Watch(ctx context.Context, slot Slot, every time.Duration, logger zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		pctx, cancel := context.WithTimeout(ctx, every)
		err := c.Ping(pctx)
		cancel()

		switch {
		case err == nil && !slot.Ready():
			slot.Bind(c)
			logger.Info().Str("url", c.baseURL).Msg("remote backend ready")
		case err != nil && slot.Ready():
			slot.Unbind()
			logger.Warn().Err(err).Str("url", c.baseURL).Msg("remote backend lost")
		case err != nil:
			logger.Debug().Err(err).Str("url", c.baseURL).Msg("remote backend not ready")
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
