// Package relay implements the connection/broadcast core of the realtime
// backend: a path-keyed connection registry with best-effort fan-out, the
// collaboration relay (document updates and awareness), and the chat relay
// with its bounded per-room history.
package relay
