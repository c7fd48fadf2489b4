// Package backoff provides delay strategies for reconnect loops.
//
// Fixed is what the connection manager uses by default; Linear and
// Exponential are available for deployments that want to back off harder
// from an unhealthy socket endpoint.
package backoff
