// Package transport owns the single physical WebSocket channel to the
// chat server: dial with bearer auth, keepalive heartbeat, raw frame
// delivery, and the low-level error surface. Reconnect policy lives one
// layer up in the session, which is the only component allowed to open
// or close the connection.
package transport
