package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *EngineConfig) Validate() error {
	if c.Server.WSURL == "" {
		return errors.New("server.ws_url is required")
	}
	if !strings.HasPrefix(c.Server.WSURL, "ws://") && !strings.HasPrefix(c.Server.WSURL, "wss://") {
		return fmt.Errorf("server.ws_url must be a ws:// or wss:// URL, got %q", c.Server.WSURL)
	}
	if c.Server.HistoryURL == "" {
		return errors.New("server.history_url is required")
	}

	if c.Connection.ReconnectDelay < 0 {
		return errors.New("connection.reconnect_delay must be >= 0")
	}
	if c.Connection.SubscribeTimeout <= 0 {
		return errors.New("connection.subscribe_timeout must be > 0")
	}

	if c.Buffers.FrameBuffer < 1 {
		return errors.New("buffers.frame_buffer must be >= 1")
	}
	if c.Buffers.NoticeBuffer < 1 {
		return errors.New("buffers.notice_buffer must be >= 1")
	}

	if c.Send.RatePerSecond <= 0 {
		return errors.New("send.rate_per_second must be > 0")
	}
	if c.Send.Burst < 1 {
		return errors.New("send.burst must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
