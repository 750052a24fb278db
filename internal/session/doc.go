// Package session glues the engine together for one authenticated
// session: it owns the transport connection (it is the only component
// allowed to open or close it), tracks per-topic subscriptions, drives
// the per-room view lifecycle, dispatches inbound frames into the
// ledger and summary cache, and publishes outbound messages.
//
// All inbound frames are applied by a single read-loop goroutine, and
// public API calls serialize their state mutations under the session
// mutex, so field-level last-writer-wins merges and per-room append
// order follow strict call order.
package session
