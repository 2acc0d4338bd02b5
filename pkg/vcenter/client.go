// Package vcenter provides a typed convenience facade over the govmomi
// library: connect to a vCenter or ESXi endpoint, enumerate inventory
// objects, and drive VM power and snapshot lifecycles without touching
// the raw managed-object and task model.
package vcenter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/virtadm/vmwrangler/configs"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/types"
)

// WrapPolicy controls whether retrieval calls return typed wrappers or
// raw govmomi objects.
type WrapPolicy int

const (
	// WrapPerCall lets each retrieval call decide via FindOptions.Raw.
	WrapPerCall WrapPolicy = iota
	// WrapAlways forces typed wrappers; per-call Raw requests are ignored.
	WrapAlways
	// WrapNever forces raw govmomi objects; per-call Raw requests are ignored.
	WrapNever
)

// Config holds vCenter connection parameters.
type Config struct {
	Host     string // vCenter hostname, host:port, or full https URL
	Username string
	Password string
	Port     int          // default from configs.Defaults
	Insecure bool         // skip TLS verification; the norm on self-signed endpoints
	Logger   *slog.Logger // nil means slog.Default()
}

// Client holds a vCenter session and the global retrieval policies.
// It is not safe for concurrent use without external synchronization.
type Client struct {
	cfg    *Config
	logger *slog.Logger

	conn *govmomi.Client

	wrapPolicy   WrapPolicy
	collapse     bool
	showProgress bool
}

// NewClient builds an unconnected client; no I/O happens until Connect.
func NewClient(cfg *Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = configs.Defaults.VCenter.Port
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:          cfg,
		logger:       logger,
		showProgress: configs.Defaults.Task.Progress,
	}
}

// endpointURL normalizes the configured host into the SDK endpoint URL.
func endpointURL(cfg *Config) (*url.URL, error) {
	var u *url.URL
	if strings.Contains(cfg.Host, "://") {
		parsed, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid vCenter URL %q: %w", cfg.Host, err)
		}
		if parsed.Scheme != "https" {
			return nil, fmt.Errorf("unsupported vCenter URL scheme %q (https required)", parsed.Scheme)
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("invalid vCenter URL (missing host): %q", cfg.Host)
		}
		if parsed.Path == "" {
			parsed.Path = configs.Defaults.VCenter.SDKPath
		}
		if parsed.Port() == "" && cfg.Port != 0 {
			parsed.Host = fmt.Sprintf("%s:%d", parsed.Hostname(), cfg.Port)
		}
		u = parsed
	} else {
		u = &url.URL{
			Scheme: "https",
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:   configs.Defaults.VCenter.SDKPath,
		}
	}
	u.User = url.UserPassword(cfg.Username, cfg.Password)
	return u, nil
}

// Connect establishes a session with the endpoint using the stored
// credentials. Authentication failures satisfy errors.Is(err,
// ErrInvalidLogin); the library never terminates the process, callers
// own the fail-fast decision.
func (c *Client) Connect(ctx context.Context) error {
	u, err := endpointURL(c.cfg)
	if err != nil {
		return err
	}

	c.logger.Info("connecting to vCenter", "host", u.Host)
	conn, err := govmomi.NewClient(ctx, u, c.cfg.Insecure)
	if err != nil {
		if faultIs(remoteFault(err), &types.InvalidLogin{}) {
			return fmt.Errorf("%w: %s", ErrInvalidLogin, u.Host)
		}
		return fmt.Errorf("failed to connect to vCenter: %w", err)
	}
	c.conn = conn
	c.logger.Info("connected to vCenter", "host", u.Host, "version", conn.ServiceContent.About.FullName)
	return nil
}

// Disconnect closes the session if one is open. It is idempotent: a
// client that never connected (or already disconnected) returns nil.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Logout(ctx)
	c.conn = nil
	if err != nil {
		return fmt.Errorf("vCenter logout failed: %w", err)
	}
	c.logger.Info("disconnected from vCenter", "host", c.cfg.Host)
	return nil
}

// Connected reports whether a session is established.
func (c *Client) Connected() bool { return c.conn != nil }

// Service returns the underlying govmomi client for advanced operations.
func (c *Client) Service() *govmomi.Client { return c.conn }

func (c *Client) vim() *vim25.Client {
	if c.conn == nil {
		return nil
	}
	return c.conn.Client
}

// SetWrapPolicy updates the global wrap policy and echoes the new value.
// An out-of-range value yields ErrInvalidPolicy and keeps the prior one.
func (c *Client) SetWrapPolicy(p WrapPolicy) (WrapPolicy, error) {
	if p < WrapPerCall || p > WrapNever {
		return c.wrapPolicy, ErrInvalidPolicy
	}
	c.wrapPolicy = p
	return c.wrapPolicy, nil
}

// WrapPolicy returns the global wrap policy.
func (c *Client) WrapPolicy() WrapPolicy { return c.wrapPolicy }

// SetCollapsePolicy updates whether Collapse narrows singleton and empty
// result lists, and echoes the new value.
func (c *Client) SetCollapsePolicy(v bool) bool {
	c.collapse = v
	return c.collapse
}

// CollapsePolicy returns the collapse policy.
func (c *Client) CollapsePolicy() bool { return c.collapse }

// SetShowProgress toggles task progress logging.
func (c *Client) SetShowProgress(v bool) { c.showProgress = v }

// wrapped reports whether a retrieval call returns typed wrappers,
// honoring the global policy before the per-call request.
func (c *Client) wrapped(raw bool) bool {
	switch c.wrapPolicy {
	case WrapAlways:
		return true
	case WrapNever:
		return false
	default:
		return !raw
	}
}
