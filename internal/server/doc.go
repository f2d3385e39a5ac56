// Package server exposes the HTTP and WebSocket surface of the realtime
// backend.
//
// The implementation is organized into specialized files for configuration,
// client connection pumps, routing, room metadata handlers, and origin
// policy, keeping the transport plumbing separate from the relay core in
// internal/relay.
package server
