// Package server implements the HTTP server using Echo framework.
//
// Routes: /ws (WebSocket accept), /status (introspection), health, version, metrics.
// Admission limits (global, per-IP, rate) gate the WebSocket upgrade.
package server
