// Command gateway runs the qwenbridge HTTP gateway: an OpenAI Chat
// Completions-shaped API in front of a session-based upstream web-chat
// service.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/qwenbridge/internal/api"
	"github.com/tingly-dev/qwenbridge/internal/applog"
	"github.com/tingly-dev/qwenbridge/internal/config"
	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/orchestrator"
	"github.com/tingly-dev/qwenbridge/internal/scheduler"
	"github.com/tingly-dev/qwenbridge/internal/translate"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	recentLogs := applog.NewRecentHook(500)
	logrus.AddHook(recentLogs)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	view := config.New(cfg)

	httpClient := upstream.NewHTTPClient(view.ProxyURL(), view.ConnectTimeout(), view.ResponseHeaderTimeout())
	upstreamClient := upstream.NewClient(httpClient, view.UpstreamBaseURL())

	pool := identity.NewPool(identity.Config{
		DegradeThreshold:    view.DegradeThreshold(),
		QuarantineThreshold: view.QuarantineThreshold(),
		QuarantineCooldown:  view.QuarantineCooldown(),
	})
	pool.Refresh = func(id *identity.Identity) (string, error) {
		return refreshToken(upstreamClient, id)
	}

	creds := view.Credentials()
	pairs := make([]identity.Credential, len(creds))
	for i, c := range creds {
		pairs[i] = identity.Credential{Token: c.Token, Cookie: c.Cookie}
	}
	pool.Initialize(pairs)

	translator := &translate.Translator{Upstream: upstreamClient, VisionFallbackModel: view.VisionFallbackModel()}
	orch := &orchestrator.Orchestrator{Pool: pool, Upstream: upstreamClient, Translator: translator}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.TokenRefresh(ctx, pool, view.TokenRefreshInterval(), view.TokenExpiryWarnWindow())
	scheduler.ChatCleanup(ctx, pool, upstreamClient, view.ChatCleanupInterval(), view.ChatCleanupPageSize())

	server := &api.Server{
		Pool:         pool,
		Upstream:     upstreamClient,
		Orchestrator: orch,
		RecentLogs:   recentLogs,
		StartedAt:    time.Now(),
		Version:      version,
	}
	router := server.Router(view.ServerAPIKey())

	logrus.WithField("addr", view.ListenAddr()).Info("starting qwenbridge gateway")
	srv := &http.Server{Addr: view.ListenAddr(), Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("gateway server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logrus.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("graceful shutdown failed")
	}
}

// refreshToken performs the cookie->token exchange. The upstream's
// exact refresh endpoint is outside the translation core's concern;
// this calls the same chats-listing surface as a cheap liveness probe
// and is expected to be adapted to the deployment's real token-exchange
// endpoint.
func refreshToken(client *upstream.Client, id *identity.Identity) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := client.ListChats(ctx, id.Token, id.Cookie, 0); err != nil {
		return "", err
	}
	return id.Token, nil
}
