package middleware

import (
	"context"
	"errors"
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/router"
)

type decisionContextKey struct{}

// DecisionFromContext returns the guard decision stored by Navigate.
func DecisionFromContext(ctx context.Context) (router.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(router.Decision)
	return d, ok
}

// Navigate runs the guard on the request URI with the request's session
// token (see RequestToken) in the guard's context. Redirect decisions become
// a 302 to the decision target. Allowed requests reach next with the decision
// in their context.
func Navigate(guard *router.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil {
				http.Error(w, "navigation unavailable", http.StatusInternalServerError)
				return
			}

			ctx := r.Context()
			if token, ok := RequestToken(r); ok {
				ctx = goAdmin.WithSessionToken(ctx, token)
			}

			d, err := guard.Navigate(ctx, r.URL.RequestURI())
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				http.Error(w, "navigation failed", http.StatusInternalServerError)
				return
			}

			if !d.Allowed {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, decisionContextKey{}, d)))
		})
	}
}
