// Package scheduler runs the gateway's two background maintenance
// loops: periodic token refresh and periodic stale-chat cleanup. Both
// are fire-and-forget goroutines started once at boot, adapted from a
// reference cleanup-task ticker pattern generalized from one fixed job
// to two independently-configured ones.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// TokenRefresh starts a ticker that periodically calls
// pool.RefreshExpired until ctx is cancelled. interval and warnWindow
// come from configuration; a non-positive interval disables the loop
// entirely.
func TokenRefresh(ctx context.Context, pool *identity.Pool, interval, warnWindow time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logrus.Debug("running scheduled token refresh")
				pool.RefreshExpired(warnWindow)
			}
		}
	}()
}

// ChatCleanup starts a ticker that periodically walks a bounded page of
// upstream chats and deletes them, using a healthy identity from pool;
// a run is skipped when the pool has no healthy identity. Best-effort: every failure is logged and
// skipped, never propagated, since this is housekeeping rather than a
// request-serving path.
func ChatCleanup(ctx context.Context, pool *identity.Pool, client *upstream.Client, interval time.Duration, pageSize int) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCleanup(ctx, pool, client, pageSize)
			}
		}
	}()
}

func runCleanup(ctx context.Context, pool *identity.Pool, client *upstream.Client, pageSize int) {
	if pool.StatusCounts().Healthy == 0 {
		logrus.Debug("skipping chat cleanup: no healthy identity")
		return
	}
	id := pool.Acquire()
	if id == nil {
		logrus.Debug("skipping chat cleanup: no selectable identity")
		return
	}

	ids, err := client.ListChats(ctx, id.Token, id.Cookie, 0)
	if err != nil {
		logrus.WithError(err).Warn("chat cleanup: failed to list chats")
		return
	}
	if len(ids) > pageSize {
		ids = ids[:pageSize]
	}

	for _, chatID := range ids {
		if err := client.DeleteChat(ctx, id.Token, id.Cookie, chatID); err != nil {
			logrus.WithError(err).WithField("chat_id", chatID).Warn("chat cleanup: failed to delete chat")
			continue
		}
	}
	pool.MarkSuccess(id)
}
