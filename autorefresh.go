package fieldmatch

import (
	"context"
	"time"

	"github.com/agentstation/fieldmatch/pkg/errors"
)

// AutoRefresher controls background taxonomy refreshes.
type AutoRefresher interface {
	// AutoRefreshOn starts refreshing every configured interval
	AutoRefreshOn() error

	// AutoRefreshOff stops background refreshes and waits for the loop to exit
	AutoRefreshOff() error
}

// AutoRefreshOn starts a goroutine that refreshes the taxonomy every
// interval set with WithAutoRefresh. Failed refreshes are logged and the
// previous taxonomy stays in place.
func (c *client) AutoRefreshOn() error {
	interval := c.options.refresh
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "auto_refresh",
			Value:   interval,
			Message: "refresh interval must be positive",
		}
	}

	// Stop any existing loop first
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	c.refreshTicker, c.refreshCancel, c.refreshDone = ticker, cancel, done

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				if _, err := c.Refresh(ctx); err != nil {
					if errors.IsCanceled(err) {
						return
					}
					c.logger.Error().Err(err).Msg("background taxonomy refresh failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	c.logger.Debug().Dur("interval", interval).Msg("auto refresh on")
	return nil
}

// AutoRefreshOff stops background refreshes. It is safe to call repeatedly.
func (c *client) AutoRefreshOff() error {
	c.mu.Lock()
	ticker, cancel, done := c.refreshTicker, c.refreshCancel, c.refreshDone
	c.refreshTicker, c.refreshCancel, c.refreshDone = nil, nil, nil
	c.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}
