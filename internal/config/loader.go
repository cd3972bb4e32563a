package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the subset of Config a YAML file can set (listen address,
// API key, upstream and proxy URLs, credentials, vision fallback and the
// degrade/quarantine thresholds). Loading is ambient
// plumbing (out of the core's concern per the specification) but the
// gateway still needs a concrete source to populate a View from.
type fileConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	ServerAPIKey    string `yaml:"server_api_key"`
	UpstreamBaseURL string `yaml:"upstream_base_url"`
	ProxyURL        string `yaml:"proxy_url"`
	Credentials     []struct {
		Token  string `yaml:"token"`
		Cookie string `yaml:"cookie"`
	} `yaml:"credentials"`
	VisionFallbackModel   string `yaml:"vision_fallback_model"`
	DisableVisionFallback bool   `yaml:"disable_vision_fallback"`
	DegradeThreshold      int    `yaml:"degrade_threshold"`
	QuarantineThreshold   int    `yaml:"quarantine_threshold"`
}

// Load reads an optional YAML file at path (ignored if empty or missing)
// layered under environment-variable overrides, and returns a populated
// Config starting from Default().
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var fc fileConfig
			if uerr := yaml.Unmarshal(data, &fc); uerr != nil {
				return cfg, uerr
			}
			applyFile(&cfg, fc)
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.ServerAPIKey != "" {
		cfg.ServerAPIKey = fc.ServerAPIKey
	}
	if fc.UpstreamBaseURL != "" {
		cfg.UpstreamBaseURL = fc.UpstreamBaseURL
	}
	if fc.ProxyURL != "" {
		cfg.ProxyURL = fc.ProxyURL
	}
	for _, c := range fc.Credentials {
		cfg.Credentials = append(cfg.Credentials, Credential{Token: c.Token, Cookie: c.Cookie})
	}
	if fc.VisionFallbackModel != "" {
		cfg.VisionFallbackModel = fc.VisionFallbackModel
	}
	cfg.DisableVisionFallback = fc.DisableVisionFallback
	if fc.DegradeThreshold > 0 {
		cfg.DegradeThreshold = fc.DegradeThreshold
	}
	if fc.QuarantineThreshold > 0 {
		cfg.QuarantineThreshold = fc.QuarantineThreshold
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QWENBRIDGE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("QWENBRIDGE_API_KEY"); v != "" {
		cfg.ServerAPIKey = v
	}
	if v := os.Getenv("QWENBRIDGE_UPSTREAM_BASE_URL"); v != "" {
		cfg.UpstreamBaseURL = v
	}
	if v := os.Getenv("QWENBRIDGE_PROXY_URL"); v != "" {
		cfg.ProxyURL = v
	}
	if v := os.Getenv("QWENBRIDGE_VISION_FALLBACK_MODEL"); v != "" {
		cfg.VisionFallbackModel = v
	}
	if v := os.Getenv("QWENBRIDGE_CREDENTIALS"); v != "" {
		// pipe-separated list of token:cookie pairs
		for _, pair := range strings.Split(v, "|") {
			parts := strings.SplitN(pair, ":", 2)
			cred := Credential{Token: parts[0]}
			if len(parts) == 2 {
				cred.Cookie = parts[1]
			}
			cfg.Credentials = append(cfg.Credentials, cred)
		}
	}
	if v := os.Getenv("QWENBRIDGE_TOKEN_REFRESH_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TokenRefreshInterval = time.Duration(n) * time.Hour
		}
	}
}
