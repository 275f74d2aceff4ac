// Package session manages server-side sessions backed by opaque bearer
// tokens.
//
// The Manager issues tokens with 256 bits of entropy and a fixed TTL,
// validates and revokes them, and enumerates a user's sessions. Persistence
// sits behind the Store interface; MemoryStore serves tests and the
// PostgreSQL implementation serves production. The Reaper deletes expired
// sessions on a wall-clock-aligned schedule with overlap protection.
//
// A session is active strictly before its expiry instant. Expired and
// unknown tokens are distinct inside the package but must surface
// identically to external clients.
package session
