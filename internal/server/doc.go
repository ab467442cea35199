// Package server wires the session engine, route guard and HTTP handlers into
// a runnable admin console backend.
//
// Configuration is read from YAML with defaults taken from struct tags.
// Storage is selected by name: memory, redis, sqlite or miniredis.
package server
