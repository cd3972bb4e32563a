package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tingly-dev/qwenbridge/internal/apierr"
	"github.com/tingly-dev/qwenbridge/internal/identity"
)

type healthResponse struct {
	Status       string              `json:"status"`
	Version      string              `json:"version"`
	UptimeSec    int64               `json:"uptime_seconds"`
	Identities   identity.Status     `json:"identities"`
	Details      []identitySummary   `json:"identity_details"`
	RecentLogs   []recentLogSummary  `json:"recent_logs,omitempty"`
}

type identitySummary struct {
	ID                    string `json:"id"`
	Health                string `json:"health"`
	ConsecutiveFails      int    `json:"consecutive_fails"`
	TokenAgeSeconds       int64  `json:"token_age_seconds,omitempty"`
	TokenRemainingSeconds int64  `json:"token_remaining_seconds,omitempty"`
}

type recentLogSummary struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Health handles GET /health: aggregate identity-pool status, token
// freshness, and a tail of recent log activity, so an operator can see
// the gateway's state without a separate log sink.
func (s *Server) Health(c *gin.Context) {
	status := "ok"
	var counts identity.Status
	var details []identitySummary

	if s.Pool != nil {
		counts = s.Pool.StatusCounts()
		if counts.Total > 0 && counts.Healthy == 0 && counts.Degraded == 0 {
			status = "degraded"
		}
		now := time.Now()
		for _, snap := range s.Pool.Snapshots() {
			d := identitySummary{ID: snap.ID, Health: snap.Health.String(), ConsecutiveFails: snap.ConsecutiveFails}
			if !snap.LastTokenRefresh.IsZero() {
				d.TokenAgeSeconds = int64(now.Sub(snap.LastTokenRefresh).Seconds())
			}
			if snap.TokenRemainingKnown {
				d.TokenRemainingSeconds = snap.TokenRemainingSeconds
			}
			details = append(details, d)
		}
	}

	var logs []recentLogSummary
	if s.RecentLogs != nil {
		for _, e := range s.RecentLogs.Latest(20) {
			logs = append(logs, recentLogSummary{Time: e.Time, Level: e.Level, Message: e.Message})
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:     status,
		Version:    s.Version,
		UptimeSec:  int64(time.Since(s.StartedAt).Seconds()),
		Identities: counts,
		Details:    details,
		RecentLogs: logs,
	})
}

// RefreshToken handles POST /refresh-token: forces an immediate
// cookie->token exchange across every identity, bypassing the
// scheduler's interval for an operator who just rotated credentials.
func (s *Server) RefreshToken(c *gin.Context) {
	if s.Pool == nil {
		status, body := apierr.ToBody(apierr.New(apierr.KindUpstreamUnavailable, "no identity pool configured"), requestID(c))
		c.JSON(status, body)
		return
	}
	const forceAll = 100 * 365 * 24 * time.Hour
	s.Pool.RefreshExpired(forceAll)
	c.JSON(http.StatusOK, gin.H{"status": "refresh triggered"})
}
