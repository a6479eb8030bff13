package session

import (
	"context"
	"log/slog"
	"time"
)

// Housekeeper periodically removes expired sessions from stores that do not
// expire entries themselves.
type Housekeeper struct {
	Store    Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeper creates a Housekeeper. If interval is 0 or negative it
// defaults to 10 minutes.
func NewHousekeeper(store Sweeper, logger *slog.Logger, interval time.Duration) *Housekeeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Housekeeper{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background. Call Stop to end it.
func (h *Housekeeper) Start() {
	go h.run()
	h.Logger.Info("session housekeeping started", "interval", h.Interval)
}

// Stop ends the sweep loop and waits for an in-progress sweep to finish.
func (h *Housekeeper) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("session housekeeping stopped")
}

func (h *Housekeeper) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Sweep(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// Sweep removes expired sessions once.
func (h *Housekeeper) Sweep(ctx context.Context) {
	removed, err := h.Store.DeleteExpired(ctx)
	if err != nil {
		h.Logger.Error("failed to delete expired sessions", "err", err)
		return
	}
	h.Logger.Debug("deleted expired sessions", "count", removed)
}
