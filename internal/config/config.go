package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIBaseURL     string
	WSBaseURL      string
	RequestTimeout time.Duration
	ErrorNoticeTTL time.Duration
	OKNoticeTTL    time.Duration
	DebugLogFile   string
}

// StubConfig configures the development stub backend.
type StubConfig struct {
	Port        int
	StateSecret string
	StateExpiry time.Duration
	Providers   []string
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadClientConfig() (ClientConfig, error) {
	return LoadClientConfigFromEnv(osEnv{})
}

func LoadClientConfigFromEnv(env Env) (ClientConfig, error) {
	cfg := ClientConfig{
		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 120 * time.Second,
		ErrorNoticeTTL: 5 * time.Second,
		OKNoticeTTL:    3 * time.Second,
	}

	if raw := env.Getenv("CHIKA_API_URL"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ClientConfig{}, fmt.Errorf("invalid CHIKA_API_URL")
		}
		cfg.APIBaseURL = strings.TrimRight(raw, "/")
	}

	cfg.WSBaseURL = env.Getenv("CHIKA_WS_URL")
	if cfg.WSBaseURL == "" {
		cfg.WSBaseURL = deriveWSBase(cfg.APIBaseURL)
	}
	cfg.WSBaseURL = strings.TrimRight(cfg.WSBaseURL, "/")

	if raw := env.Getenv("CHIKA_REQUEST_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return ClientConfig{}, fmt.Errorf("invalid CHIKA_REQUEST_TIMEOUT_SECONDS")
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	cfg.DebugLogFile = env.Getenv("CHIKA_DEBUG_LOG")
	return cfg, nil
}

func deriveWSBase(apiBase string) string {
	switch {
	case strings.HasPrefix(apiBase, "https://"):
		return "wss://" + strings.TrimPrefix(apiBase, "https://")
	case strings.HasPrefix(apiBase, "http://"):
		return "ws://" + strings.TrimPrefix(apiBase, "http://")
	}
	return apiBase
}

func LoadStubConfig() (StubConfig, error) {
	return LoadStubConfigFromEnv(osEnv{})
}

func LoadStubConfigFromEnv(env Env) (StubConfig, error) {
	cfg := StubConfig{
		Port:        8000,
		StateExpiry: 10 * time.Minute,
		Providers:   []string{"mock"},
	}

	if raw := env.Getenv("CHIKA_STUB_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return StubConfig{}, fmt.Errorf("invalid CHIKA_STUB_PORT")
		}
		cfg.Port = port
	}

	cfg.StateSecret = env.Getenv("CHIKA_STATE_SECRET")
	if cfg.StateSecret == "" {
		return StubConfig{}, fmt.Errorf("CHIKA_STATE_SECRET is required")
	}

	if raw := env.Getenv("CHIKA_STATE_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return StubConfig{}, fmt.Errorf("invalid CHIKA_STATE_EXPIRY_SECONDS")
		}
		cfg.StateExpiry = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("CHIKA_STUB_PROVIDERS"); raw != "" {
		providers := make([]string, 0, 4)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				providers = append(providers, p)
			}
		}
		if len(providers) == 0 {
			return StubConfig{}, fmt.Errorf("invalid CHIKA_STUB_PROVIDERS")
		}
		cfg.Providers = providers
	}

	return cfg, nil
}
