package huddle

import "time"

// Config controls how the SDK connects.
type Config struct {
	URL   string
	Token string // bearer token sent with identify

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// AutoReconnect enables reconnection with exponential backoff after
	// an unexpected transport drop. Close and forced logout always stop
	// reconnection.
	AutoReconnect     bool
	ReconnectInterval time.Duration // initial backoff delay
	MaxReconnectDelay time.Duration // backoff cap
	MaxReconnectTries int           // 0 means unlimited
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       0, // server handles idle detection with ping/pong
		WriteTimeout:      10 * time.Second,
		AutoReconnect:     true,
		ReconnectInterval: 2 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		MaxReconnectTries: 0,
	}
}
