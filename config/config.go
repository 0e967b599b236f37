package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = "3000"
	defaultSlashCommand  = "/slackops-github-actions"
	defaultMaxVisible    = 10
	defaultLogLevel      = "info"
	defaultDispatchWait  = 3 * time.Second
	defaultPollTimeout   = 15 * time.Second
	defaultDispatchDocs  = "https://docs.github.com/en/actions/using-workflows/events-that-trigger-workflows#workflow_dispatch"
	maxVisibleUpperBound = 45
)

type Config struct {
	SlackBotToken       string
	SlackSigningSecret  string
	SlackAppToken       string
	GitHubToken         string
	GitHubAPIURL        string
	Port                string
	SlashCommand        string
	DispatchWait        time.Duration
	DispatchPollTimeout time.Duration
	MaxVisible          int
	LogLevel            string
	MessagesFile        string
	AllowedNetworks     []netip.Prefix
	DocsURL             string
}

// SocketMode returns true when an app-level token is configured, in which
// case events arrive over a Socket Mode connection instead of HTTP.
func (c *Config) SocketMode() bool {
	return c.SlackAppToken != ""
}

// Load reads the configuration from the environment. A .env file in the
// working directory is read first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		SlackAppToken:      os.Getenv("SLACK_APP_TOKEN"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:       os.Getenv("GITHUB_API_URL"),
		Port:               os.Getenv("PORT"),
		SlashCommand:       os.Getenv("SLASH_COMMAND"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		MessagesFile:       os.Getenv("MESSAGES_FILE"),
		DocsURL:            os.Getenv("DOCS_URL"),
	}

	if cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if cfg.SlackAppToken != "" && !strings.HasPrefix(cfg.SlackAppToken, "xapp-") {
		return nil, fmt.Errorf("SLACK_APP_TOKEN must start with xapp-")
	}
	// Request signatures are only checked on the HTTP endpoints.
	if cfg.SlackSigningSecret == "" && !cfg.SocketMode() {
		return nil, fmt.Errorf("SLACK_SIGNING_SECRET is required (or set SLACK_APP_TOKEN to use Socket Mode)")
	}
	if cfg.GitHubToken == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is required")
	}

	var err error
	if cfg.DispatchWait, err = durationEnv("DISPATCH_WAIT", defaultDispatchWait); err != nil {
		return nil, err
	}
	if cfg.DispatchPollTimeout, err = durationEnv("DISPATCH_POLL_TIMEOUT", defaultPollTimeout); err != nil {
		return nil, err
	}
	if cfg.AllowedNetworks, err = parseNetworks(os.Getenv("ALLOWED_CIDRS")); err != nil {
		return nil, err
	}
	if cfg.MaxVisible, err = intEnv("MAX_VISIBLE", defaultMaxVisible); err != nil {
		return nil, err
	}
	// Slack rejects messages with more than 50 blocks.
	if cfg.MaxVisible < 1 || cfg.MaxVisible > maxVisibleUpperBound {
		return nil, fmt.Errorf("MAX_VISIBLE must be between 1 and %d, got %d", maxVisibleUpperBound, cfg.MaxVisible)
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.SlashCommand == "" {
		cfg.SlashCommand = defaultSlashCommand
	}
	if !strings.HasPrefix(cfg.SlashCommand, "/") {
		cfg.SlashCommand = "/" + cfg.SlashCommand
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.DocsURL == "" {
		cfg.DocsURL = defaultDispatchDocs
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, raw, err)
	}
	return n, nil
}

// parseNetworks reads a comma separated list of CIDRs. A bare address is
// taken as a single-host network.
func parseNetworks(raw string) ([]netip.Prefix, error) {
	var nets []netip.Prefix
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return nil, fmt.Errorf("ALLOWED_CIDRS: invalid address %q: %w", entry, err)
			}
			nets = append(nets, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_CIDRS: invalid network %q: %w", entry, err)
		}
		nets = append(nets, prefix.Masked())
	}
	return nets, nil
}
