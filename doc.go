// Package accounts provides the account lifecycle and access-control core
// for the BenjiYou project-management clients: registration, admin
// moderation (approve/reject), role-gated authorization, and a reactive
// auth session.
//
// Account lifecycle:
//   - New registrations land in the pending set of the Registry and stay
//     there until an administrator approves (pending → active) or rejects
//     them. Only active accounts can authenticate.
//   - The Registry owns every Account record. Lookups and listings hand out
//     defensive copies so callers can never mutate registry state in place.
//
// Sessions:
//   - SessionManager orchestrates login, registration, logout, and admin
//     moderation, and publishes a SessionState snapshot (current account,
//     authenticated, loading, error message) to subscribers. Operations are
//     serialized; at most one session mutation is in flight at a time.
//   - The current session is mirrored to a SessionStore so a client restart
//     resumes authenticated without a login round trip. The cached snapshot
//     is trusted as-is unless startup revalidation is enabled.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by SessionManager
//     to describe registration, login, logout, and moderation events. Sinks
//     run best-effort (errors are logged) so you can forward to a database
//     or queue without blocking authentication.
package accounts
