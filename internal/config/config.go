package config

import "time"

// EngineConfig is the root configuration for a chat sync session.
type EngineConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Buffers    BuffersConfig    `yaml:"buffers"`
	Send       SendConfig       `yaml:"send"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds chat server endpoints.
//
// The bearer token is deliberately not part of the file: the session
// caller supplies it (from the login flow or an environment variable).
type ServerConfig struct {
	WSURL      string `yaml:"ws_url"`      // WebSocket endpoint (wss://...)
	HistoryURL string `yaml:"history_url"` // Paginated history REST base URL
}

// ConnectionConfig holds transport and subscription settings.
type ConnectionConfig struct {
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`   // Fixed wait after an unplanned drop
	PingInterval     time.Duration `yaml:"ping_interval"`     // Keepalive ping cadence
	PingTimeout      time.Duration `yaml:"ping_timeout"`      // Max silence before the connection is stale
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // Write deadline for sends
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout"` // Max wait for a subscribe ack
}

// BuffersConfig holds in-memory queue sizes.
type BuffersConfig struct {
	FrameBuffer  int `yaml:"frame_buffer"`  // Transport inbound frame channel
	NoticeBuffer int `yaml:"notice_buffer"` // Server error notice queue
}

// SendConfig holds outbound publish limits.
type SendConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"` // Sustained outbound message rate
	Burst         int     `yaml:"burst"`           // Burst allowance
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
