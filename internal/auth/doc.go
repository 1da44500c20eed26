// Package auth implements local accounts and the persisted login session.
//
// Passwords are stored as bcrypt hashes. A login issues an HS256 access token and a refresh token whose id is
// registered in the sessions table, so logout and rotation can revoke it. The [Service] persists the session
// and the current-user record as JSON files in the session directory and restores them at startup through
// [Service.Hydrate].
package auth
