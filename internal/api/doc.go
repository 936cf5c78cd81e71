// Package api implements the HTTP REST API and WebSocket server for EcoRent.
//
// This package provides:
//   - Device listing endpoints under /api/devices (multipart create, read,
//     filtered listing, partial update, delete)
//   - Account endpoints under /api/auth (register, login, profile, password)
//   - A WebSocket hub that streams committed device events
//   - Middleware stack (request ID, logging, recovery, CORS, body limits,
//     request metrics, bearer-token auth)
//
// # Authentication
//
// Protected routes expect "Authorization: Bearer <jwt>". A missing token is
// answered with 401 and an invalid or expired one with 403. The verified
// claims are stored in the request context and read with claimsFromContext.
//
// # Error responses
//
// Errors are written as {"status", "code", "message"}. Domain sentinels are
// mapped by writeServiceError: not found → 404, forbidden → 403, invalid
// input → 400, everything else → 500.
package api
