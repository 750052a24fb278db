// Package router decodes raw inbound WebSocket frames into a closed set
// of typed frames, distinguished by destination:
//
//   - a per-room topic carrying chat messages
//   - the account-wide room-list topic carrying partial summary updates
//   - the account-wide errors topic carrying human-readable notices
//
// Command acks (subscribe/unsubscribe responses) are recognized
// separately so the session can correlate them with pending commands
// before data decoding runs.
package router
