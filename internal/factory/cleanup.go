package factory

import (
	"context"
	"log/slog"
	"time"
)

// StartCleanup sweeps every interval on the app clock until ctx is done or
// the app is closed. A non-positive interval disables sweeping.
func (a *App) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	var sweep func()
	sweep = func() {
		if ctx.Err() != nil {
			return
		}
		a.Cleanup(ctx)

		a.cleanupMu.Lock()
		defer a.cleanupMu.Unlock()
		if !a.closed {
			a.cleanupTimer = a.Clock.AfterFunc(interval, sweep)
		}
	}

	a.cleanupMu.Lock()
	defer a.cleanupMu.Unlock()
	if a.cleanupTimer != nil {
		a.cleanupTimer.Stop()
	}
	a.cleanupTimer = a.Clock.AfterFunc(interval, sweep)
}

// Cleanup stops push hubs nobody is connected to and drops expired guests
func (a *App) Cleanup(ctx context.Context) {
	hubs := a.HubManager.CleanupEmptyHubs()
	guests, err := a.AuthService.CleanExpiredSessions(ctx)
	if err != nil {
		a.Logger.Error("failed to drop expired participants", slog.Any("error", err))
	}
	a.Logger.Debug("cleanup sweep finished",
		slog.Int("hubs_removed", hubs),
		slog.Int("guests_expired", guests),
		slog.Int("hubs_running", a.HubManager.HubCount()))
}
