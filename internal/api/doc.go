// Package api implements the HTTP REST API for Atrium Core.
//
// This package provides:
//   - Authentication endpoints (login, logout, logout-all, password change)
//   - Permission-code and menu/department tree endpoints
//   - Role grant editing for the permission editor
//   - Middleware stack (request ID, logging, recovery, CORS, body size)
//
// # Security
//
// Every route is registered with an explicit Policy value. Public routes skip
// authentication; everything else requires a Bearer token that resolves to a
// live session in the session store. Token failures map to three distinct
// messages (no token provided / token has expired / invalid token) so clients
// can tell a stale login from a broken one. Routes flagged DenyDemo reject
// demo-role sessions before the handler runs.
package api
