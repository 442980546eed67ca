// Package http provides HTTP handlers and middleware for the reservation API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","principal"} with the token also surfaced
//     via the `X-Session-Token` header and a `session_token` cookie.
//   - PUT /sessions/current: rotates the current session token.
//   - DELETE /sessions: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 and clears the cookie.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: administrator
//     controlled account management exchanging the `userDTO` payload defined in
//     user_handler.go.
//   - GET /resources, POST /resources, GET/PUT /resources/{id},
//     PUT /resources/{id}/state: catalog endpoints exchanging the `resourceDTO`
//     payload defined in resource_handler.go. Listing and reads are available
//     to any authenticated principal while mutations require admin privileges.
//     A state change reports how many live reservations were force-cancelled.
//   - POST /reservations, GET /reservations, GET /reservations/{id},
//     PUT /reservations/{id}/status, GET /resources/{id}/reservations:
//     reservation endpoints exchanging the `reservationDTO` payload defined in
//     reservation_handler.go. Creation responses include conflict warnings for
//     overlapping peers; the flat listing reports reservations active at the
//     instant given by the optional `date` and `time` query parameters.
//   - GET /availability, GET /availability/occupancy,
//     GET /resources/{id}/availability: point-in-time availability queries.
//     The optional `date` and `time` query parameters select the instant;
//     omitting both evaluates at the current clock reading.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
