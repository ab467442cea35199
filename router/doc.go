// Package router declares the admin route tree and the navigation guard that
// decides, per transition, whether a page may be shown.
//
// # Route table
//
// [DefaultRoutes] returns the admin tree. [NewTable] compiles a tree into a
// flat lookup that resolves parent redirects and falls back to the catch-all
// route for unknown paths.
//
// # Guard
//
// [Guard.Navigate] runs one transition: it starts the progress indicator,
// publishes the page title, asks the [Authenticator] whether a session is
// active and returns a [Decision]. Protected routes redirect anonymous users
// to the login route with the requested path in the redirect query
// parameter. Authenticated users are sent from the login route to the
// landing route.
//
// # What this package must NOT do
//
//   - Import the engine package. The guard only sees a boolean login check.
//   - Speak HTTP. The middleware package adapts requests to navigations.
package router
