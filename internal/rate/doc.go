// Package rate throttles failed logins with Redis fixed-window counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:rl:u:<username>" per user and "<prefix>:rl:ip:<ip>" per client
// address.
//
// # What this package must NOT do
//
//   - Decide what counts as a failure. Callers report failures.
//   - Store anything besides counters.
package rate
