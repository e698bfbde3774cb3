package launchsync

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
)

// AutoSyncer provides controls for scheduled syncs.
type AutoSyncer interface {
	// AutoSyncOn starts running every category on the configured interval
	AutoSyncOn() error

	// AutoSyncOff stops scheduled syncs
	AutoSyncOff() error
}

// AutoSyncOn starts running every category on the configured interval.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// stopCh was closed by AutoSyncOff
	c.stopCh = make(chan struct{})
	c.ticker = time.NewTicker(c.options.autoSyncInterval)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.autoSyncLoop(ctx, c.ticker, c.stopCh)
	c.logger.Info().Dur("interval", c.options.autoSyncInterval).Msg("Auto-sync started")
	return nil
}

func (c *client) autoSyncLoop(ctx context.Context, ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
			_, err := c.RunAll(runCtx, c.options.syncLimit)
			cancel()

			if err != nil {
				if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
					return
				}
				c.logger.Error().Err(err).Msg("Auto-sync failed")
			}
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

// AutoSyncOff stops scheduled syncs. A run already in progress is canceled.
func (c *client) AutoSyncOff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	select {
	case <-c.stopCh:
		// already closed
	default:
		close(c.stopCh)
	}
	return nil
}
