// Package model defines shared data types used across the chat sync engine.
//
// Conventions:
//   - Timestamps: time.Time; server timestamps arrive as RFC 3339 strings
//     and are parsed at the router boundary
//   - IDs: opaque strings (room ids, sender ids); outbound message ids
//     are client-generated UUIDs
package model
