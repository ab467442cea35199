// Package storage provides the durable key-value stores that back the
// admin console session engine.
//
// # Backends
//
//   - [Memory] — process-local map, used in tests and single-process demos.
//   - [Redis] — go-redis backed, keys namespaced as prefix:namespace:key.
//   - [SQL] — gorm backed table kv_entries, SQLite by default.
//
// All backends implement [Storage], [Updater] and [MultiSetter]. Updater
// gives the engine an atomic read-modify-write of a single key (Redis
// WATCH/MULTI, SQL transaction, in-process lock) and MultiSetter writes
// several keys at once so a session is never left half written.
//
// # What this package must NOT do
//
//   - Interpret stored values (the session package owns the encoding).
//   - Import goAdmin or session.
package storage
