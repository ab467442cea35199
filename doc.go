// Package goAdmin provides the session engine behind the admin console:
// login, registration, logout, password change, login checks and
// auto-login, persisted to a durable key-value store.
//
// An [Engine] is created through [Builder.Build] and is safe for concurrent
// use. Session state mutations are serialized in-process; the user table is
// updated through the storage backend's atomic update so that usernames stay
// unique across processes.
//
// # Architecture boundaries
//
// goAdmin is the public surface. It exposes [Engine], [Builder], [Config],
// the request forms and metric types. Key encoding lives in the session
// package, persistence in storage, token signing in jwt and hashing in
// password. The router package consults the Engine only through its
// CheckLogin method.
//
// # What this package must NOT do
//
//   - Perform I/O during Builder configuration. Storage is touched only by
//     Engine methods.
//   - Store user passwords in plaintext. The user table holds Argon2id
//     hashes; only the remembered credential keeps the raw pair.
package goAdmin
