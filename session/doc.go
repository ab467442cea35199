// Package session defines the admin console session model and its durable
// encoding: the signed-in [Profile], the [UserRecord] table entries, and the
// optional [RememberedCredential].
//
// # Encoding
//
// Every value is stored as JSON under a fixed logical key (see the Key
// constants). Decoders are strict about the fields the session engine
// relies on: a profile without a username is reported as incomplete so the
// engine can treat it as an integrity failure.
//
// # Architecture boundaries
//
// This package owns the data model and codec. It does NOT perform storage
// I/O, issue tokens, or hash passwords; those belong to storage, jwt,
// password and the Engine.
//
// # What this package must NOT do
//
//   - Import goAdmin, storage, jwt, or password (no upward imports).
//   - Decide whether a session is authenticated beyond the shape of its data.
package session
