package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

// DefaultConnectTimeout is the maximum time to wait for initial connection.
const DefaultConnectTimeout = 5 * time.Second

// Config holds the configuration for creating a Valkey client.
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps the valkey-go client with application-specific key
// prefixing plus the advisory-lock helper the schedule runner uses.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient connects and pings within the configured timeout. The
// caller is responsible for calling Close when done.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{
		inner:     inner,
		keyPrefix: prefix,
	}, nil
}

// Inner returns the underlying valkey-go client for direct command access.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key from the given parts.
// Example: Key("scheduler", "leader") -> "inkwell:scheduler:leader"
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	key := c.keyPrefix
	for i, p := range parts {
		key += p
		if i < len(parts)-1 {
			key += ":"
		}
	}
	return key
}

func (c *Client) KeyPrefix() string {
	return c.keyPrefix
}

// TryLock takes an advisory lock via SET NX EX, tagging it with ownerID
// so holders are identifiable. Returns false when another owner holds it.
func (c *Client) TryLock(ctx context.Context, key, ownerID string, ttl time.Duration) (bool, error) {
	cmd := c.inner.B().Set().Key(key).Value(ownerID).Nx().Ex(ttl).Build()
	err := c.inner.Do(ctx, cmd).Error()
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Unlock releases an advisory lock, but only while ownerID still holds it.
func (c *Client) Unlock(ctx context.Context, key, ownerID string) error {
	holder, err := c.inner.Do(ctx, c.inner.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if IsNil(err) {
			return nil
		}
		return err
	}
	if holder != ownerID {
		return nil
	}
	return c.inner.Do(ctx, c.inner.B().Del().Key(key).Build()).Error()
}

// Publish sends a message on a channel; used for the websocket fan-out.
func (c *Client) Publish(ctx context.Context, channel, message string) error {
	return c.inner.Do(ctx, c.inner.B().Publish().Channel(channel).Message(message).Build()).Error()
}

// Ping tests the connection with a context for timeout control.
func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsConnected tests if the connection is healthy (uses a short timeout).
func (c *Client) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return c.Ping(ctx) == nil
}

// IsNil checks if an error represents a Valkey NIL response.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
