// Package companion assembles the SafeDrive companion daemon: the
// synchronization core, the MQTT push stream and the local observer
// surface, run together until the context ends.
package companion

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/safedrive-io/safedrive/internal/companion/observer"
	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/internal/companion/stream"
	"github.com/safedrive-io/safedrive/pkg/log"
)

type Companion struct {
	log      log.Logger
	core     *state.Core
	observer *observer.Server
	stream   *stream.Stream
	cfg      *Config
}

// Core exposes the synchronization core for embedding callers.
func (c *Companion) Core() *state.Core {
	return c.core
}

// Run restores the saved session, opens the push stream when one
// exists, and serves the observer until the context is cancelled.
func (c *Companion) Run(ctx context.Context) error {
	if err := c.core.Bootstrap(ctx); err != nil {
		// A stale token or an unreachable backend should not keep the
		// observer from coming up; the companion serves signed out.
		c.log.Error(err, "Session restore failed, continuing signed out")
	}

	if c.core.SignedIn() {
		s, err := c.cfg.newStream(c.log, c.core)
		if err != nil {
			return err
		}
		c.stream = s
		if err := c.stream.Start(ctx); err != nil {
			return err
		}
	} else {
		c.log.Info("No session, push stream stays closed")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.observer.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		if c.stream != nil {
			shutdownCtx := context.Background()
			c.stream.Stop(shutdownCtx)
		}
		c.core.Close(context.Background())
		return nil
	})

	err := g.Wait()
	c.log.Info("Companion stopped")
	return err
}
