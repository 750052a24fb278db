package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultReconnectDelay   = 3 * time.Second
	DefaultPingInterval     = 25 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultSubscribeTimeout = 10 * time.Second
	DefaultFrameBuffer      = 1000
	DefaultNoticeBuffer     = 64
	DefaultRatePerSecond    = 5.0
	DefaultBurst            = 10
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

func (c *EngineConfig) applyDefaults() {
	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.SubscribeTimeout == 0 {
		c.Connection.SubscribeTimeout = DefaultSubscribeTimeout
	}

	if c.Buffers.FrameBuffer == 0 {
		c.Buffers.FrameBuffer = DefaultFrameBuffer
	}
	if c.Buffers.NoticeBuffer == 0 {
		c.Buffers.NoticeBuffer = DefaultNoticeBuffer
	}

	if c.Send.RatePerSecond == 0 {
		c.Send.RatePerSecond = DefaultRatePerSecond
	}
	if c.Send.Burst == 0 {
		c.Send.Burst = DefaultBurst
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
