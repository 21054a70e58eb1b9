package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Default configuration values (production)
const (
	DefaultDomain = "sparkdrop.app"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Config holds application configuration.
type Config struct {
	// Domain is the signaling relay domain.
	Domain string

	// WebSocketURL is constructed from the domain.
	WebSocketURL string

	// STUN servers for ICE gathering.
	STUNServers []string
}

// Options for loading config with CLI flag overrides.
type Options struct {
	Domain     string
	ServerURL  string
	STUNServer string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := opts.Domain
	if domain == "" {
		domain = os.Getenv("SPARKDROP_DOMAIN")
	}
	if domain == "" {
		domain = DefaultDomain
	}

	stun := opts.STUNServer
	if stun == "" {
		stun = os.Getenv("STUN_SERVER")
	}
	if stun == "" {
		stun = DefaultSTUN
	}

	// A full ws:// URL overrides the domain-derived one, which makes
	// pointing at a locally running relay a single flag.
	wsURL := opts.ServerURL
	if wsURL == "" {
		wsURL = os.Getenv("SPARKDROP_SERVER")
	}
	if wsURL == "" {
		wsURL = fmt.Sprintf("wss://%s/ws", domain)
	}
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", wsURL, err)
	}

	return &Config{
		Domain:       domain,
		WebSocketURL: wsURL,
		STUNServers:  splitServers(stun),
	}, nil
}

func splitServers(s string) []string {
	parts := strings.Split(s, ",")
	servers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			servers = append(servers, p)
		}
	}
	return servers
}

// SessionLink returns the shareable join link for a session ID. The
// receiver side parses the session back out of the query parameter.
func (c *Config) SessionLink(sessionID string) string {
	return fmt.Sprintf("https://%s/?session=%s", c.Domain, url.QueryEscape(sessionID))
}

// ParseSessionInput accepts either a bare session ID or a full join link
// and returns the session ID.
func ParseSessionInput(input string) (string, error) {
	if !strings.Contains(input, "://") {
		return strings.TrimSpace(input), nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid join link: %w", err)
	}
	id := u.Query().Get("session")
	if id == "" {
		return "", fmt.Errorf("join link %q carries no session parameter", input)
	}
	return id, nil
}
