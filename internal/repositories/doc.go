// Package repositories implements SQLite persistence for accounts and sessions.
//
// Key Implementations:
//   - [UserRepository] : account rows with userid and email lookups, soft deletes and duplicate-key mapping
//   - [SessionRepository] : refresh token registry with revocation and pruning
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
