// Package httpserver wraps net/http.Server with graceful shutdown, signal
// handling, start/stop hooks and an env-tag Config for wiring through the
// config loader. It also provides a healthcheck handler usable for both
// liveness and readiness probes.
package httpserver
