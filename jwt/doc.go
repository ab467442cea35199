// Package jwt issues and verifies the session tokens handed out on login.
//
// A token is a signed JWT whose subject is the username and whose jti is a
// random UUID, so every login produces a distinct value. Verification is
// strict: the algorithm is pinned, the issuer is checked when configured and
// expiry honours a bounded leeway.
package jwt
