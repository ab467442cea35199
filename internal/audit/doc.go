// Package audit implements async event dispatching for session operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap logger, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: audit record with timestamp, type, username, namespace, IP and metadata.
//
// This package owns buffering and sink delivery. Which events are emitted is
// decided by the Engine.
package audit
