package xconn

import (
	"runtime"
	"time"

	"github.com/xconnio/xconn-go/internal/log"
	"github.com/xconnio/xconn-go/serializer"
)

// DefaultTimeout is the ceiling placed on every wait-for-response, absent
// an explicit deadline on the caller's context.
const DefaultTimeout = 10 * time.Second

// Config collects the knobs a Session is built with. The zero value is not
// useful directly; use NewConfig to get sane defaults before applying
// Options.
type Config struct {
	Timeout        time.Duration
	Workers        int
	Logger         *log.Logger
	MaxMessageSize int
	Serializer     serializer.ID
}

// NewConfig returns the default Config, then applies opts in order.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Timeout:        DefaultTimeout,
		Workers:        runtime.GOMAXPROCS(0),
		Logger:         log.Nop(),
		MaxMessageSize: 1 << 24,
		Serializer:     serializer.IDJSON,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a Config.
type Option func(*Config)

// WithTimeout overrides the default 10-second request/leave deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithWorkers overrides the invocation/event worker pool size. Default is
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithLogger installs a structured event logger; see internal/log.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMaxMessageSize overrides the rawsocket-negotiated maximum message
// size, in bytes.
func WithMaxMessageSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxMessageSize = n
		}
	}
}

// WithSerializer overrides the wire serializer offered during the
// rawsocket handshake. Default is serializer.IDJSON.
func WithSerializer(id serializer.ID) Option {
	return func(c *Config) { c.Serializer = id }
}
