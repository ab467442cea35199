// Package middleware adapts net/http requests to the navigation guard and the
// session engine.
//
//   - [RequireSession] rejects API requests with 401 unless they carry
//     "Authorization: Bearer <token>" with the engine's current token.
//   - [Navigate] runs [router.Guard.Navigate] for page requests with the
//     request's token (bearer header or [TokenCookie]) in the context and
//     answers guard redirects with 302 Found.
//   - [TokenAuthenticator] is the [router.Authenticator] to build that guard
//     with when many clients share one listener. A guard built directly on
//     the Engine treats every caller as the signed-in user.
//   - [ClientIP] copies the caller address into the request context so audit
//     events carry it.
//
// # What this package must NOT do
//
//   - Make access decisions itself. The guard and the engine decide.
//   - Touch durable storage directly.
package middleware
