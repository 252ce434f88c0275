// Package api implements the HTTP REST API and WebSocket endpoint for Feedline Core.
//
// This package provides:
//   - Credential endpoints: signup, login, profile and status text
//   - CRUD endpoints for the resource collection
//   - A WebSocket endpoint where the hub pushes mutation events
//   - Ambient middleware (request ID, logging, recovery, metrics, CORS, body limits)
//
// # Request pipeline
//
// Each route is a handler that returns an error, run behind an ordered list
// of stages by Server.dispatch. A stage either passes the request on, with
// its context possibly enriched, or fails it. Every failure, from a stage or
// a handler, ends in respondError, which is the only place a failure kind
// becomes an HTTP status.
//
// # Security
//
// Bearer tokens are validated on every protected request without a database
// lookup; the embedded subject is trusted until the token expires.
// WebSocket connections use single-use tickets so tokens never appear in URLs.
package api
