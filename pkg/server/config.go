package server

import (
	"net/http"
	"time"
)

// DefaultCookieName is the cookie that carries the client ID.
const DefaultCookieName = "storyapp_client"

// Config holds server configuration.
type Config struct {
	// Address is the listen address. Default: ":8080".
	Address string

	// ReadHeaderTimeout bounds reading request headers. Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 30 seconds.
	ShutdownTimeout time.Duration

	// HandshakeTimeout is the maximum wait for the client hello.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// ReadTimeout is the maximum silence from a connected client before it
	// is dropped. Pongs count as traffic. Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings. Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// SendBuffer is the number of frames queued per client before the
	// application shell blocks. Default: 64.
	SendBuffer int

	// TransitionDelay is the fallback page transition delay. Default: 150ms.
	TransitionDelay time.Duration

	// CookieName is the client ID cookie. Default: "storyapp_client".
	CookieName string

	// CookieSecure marks the client ID cookie Secure.
	CookieSecure bool

	// CheckOrigin validates the Origin of WebSocket upgrades.
	// Default: same host only.
	CheckOrigin func(r *http.Request) bool

	// Title is the document title. Default: "Dicoding Stories".
	Title string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBuffer:        64,
		TransitionDelay:   150 * time.Millisecond,
		CookieName:        DefaultCookieName,
		Title:             "Dicoding Stories",
	}
}

// withDefaults fills unset fields of c from DefaultConfig.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = defaults.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.HeartbeatInterval == 0 {
		out.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.SendBuffer == 0 {
		out.SendBuffer = defaults.SendBuffer
	}
	if out.TransitionDelay == 0 {
		out.TransitionDelay = defaults.TransitionDelay
	}
	if out.CookieName == "" {
		out.CookieName = defaults.CookieName
	}
	if out.Title == "" {
		out.Title = defaults.Title
	}
	return &out
}
