// Package config provides a read-only view of runtime configuration for the
// gateway (View), plus Load, which builds a Config from defaults, an
// optional YAML file and QWENBRIDGE_* environment variables. The core only
// ever sees the View.
package config

import "time"

// Credential is a single (token, cookie) pair as configured for one identity.
type Credential struct {
	Token  string
	Cookie string
}

// View is a read-only accessor over the gateway's runtime configuration.
// Nothing in the core mutates it after construction.
type View struct {
	cfg Config
}

// Config is the full set of values a View wraps. It is exported so a
// caller can build one directly (as tests do) or obtain one from Load.
type Config struct {
	ListenAddr string

	// ServerAPIKey, when non-empty, is required on inbound requests in
	// server mode (see internal/api auth middleware).
	ServerAPIKey string

	UpstreamBaseURL string
	ProxyURL        string

	Credentials []Credential

	VisionFallbackModel string
	DisableVisionFallback bool

	DegradeThreshold    int
	QuarantineThreshold int
	QuarantineCooldown  time.Duration

	TokenRefreshInterval   time.Duration
	TokenExpiryWarnWindow  time.Duration
	ChatCleanupInterval    time.Duration
	ChatCleanupPageSize    int

	ConnectTimeout        time.Duration
	ResponseHeaderTimeout time.Duration
}

// Default returns a Config with the interval/threshold defaults named in
// the component design (degrade at 1 failure, quarantine at 3, etc).
func Default() Config {
	return Config{
		ListenAddr:             ":8080",
		UpstreamBaseURL:        "https://chat.qwen.ai",
		DegradeThreshold:       1,
		QuarantineThreshold:    3,
		QuarantineCooldown:     5 * time.Minute,
		TokenRefreshInterval:   24 * time.Hour,
		TokenExpiryWarnWindow:  7 * 24 * time.Hour,
		ChatCleanupInterval:    60 * time.Minute,
		ChatCleanupPageSize:    50,
		ConnectTimeout:         10 * time.Second,
		ResponseHeaderTimeout:  30 * time.Second,
	}
}

// New wraps a Config in a read-only View.
func New(cfg Config) *View {
	return &View{cfg: cfg}
}

func (v *View) ListenAddr() string      { return v.cfg.ListenAddr }
func (v *View) ServerAPIKey() string    { return v.cfg.ServerAPIKey }
func (v *View) UpstreamBaseURL() string { return v.cfg.UpstreamBaseURL }
func (v *View) ProxyURL() string        { return v.cfg.ProxyURL }

func (v *View) Credentials() []Credential {
	out := make([]Credential, len(v.cfg.Credentials))
	copy(out, v.cfg.Credentials)
	return out
}

func (v *View) VisionFallbackModel() string {
	if v.cfg.DisableVisionFallback {
		return ""
	}
	return v.cfg.VisionFallbackModel
}

func (v *View) DegradeThreshold() int        { return v.cfg.DegradeThreshold }
func (v *View) QuarantineThreshold() int     { return v.cfg.QuarantineThreshold }
func (v *View) QuarantineCooldown() time.Duration { return v.cfg.QuarantineCooldown }

func (v *View) TokenRefreshInterval() time.Duration  { return v.cfg.TokenRefreshInterval }
func (v *View) TokenExpiryWarnWindow() time.Duration { return v.cfg.TokenExpiryWarnWindow }
func (v *View) ChatCleanupInterval() time.Duration   { return v.cfg.ChatCleanupInterval }
func (v *View) ChatCleanupPageSize() int             { return v.cfg.ChatCleanupPageSize }

func (v *View) ConnectTimeout() time.Duration        { return v.cfg.ConnectTimeout }
func (v *View) ResponseHeaderTimeout() time.Duration { return v.cfg.ResponseHeaderTimeout }
