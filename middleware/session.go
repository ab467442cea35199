package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/router"
	"github.com/MrEthical07/goAdmin/session"
)

// TokenCookie carries the session token for page requests.
const TokenCookie = "goadmin_token"

type sessionContextKey struct{}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return s, ok
}

type tokenChecker interface {
	CheckToken(ctx context.Context, token string) (session.Session, bool)
}

// RequireSession answers 401 unless the request carries
// "Authorization: Bearer <token>" with the engine's current session token.
func RequireSession(engine *goAdmin.Engine) func(http.Handler) http.Handler {
	if engine == nil {
		return requireSession(nil)
	}
	return requireSession(engine)
}

func requireSession(checker tokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || checker == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, ok := checker.CheckToken(r.Context(), token)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			ctx = goAdmin.WithSessionToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenAuthenticator adapts engine to router.Authenticator for listeners
// shared by many clients. A navigation counts as signed in only when its
// context carries the current session token (see Navigate).
func TokenAuthenticator(engine *goAdmin.Engine) router.Authenticator {
	if engine == nil {
		return tokenAuthenticator{}
	}
	return tokenAuthenticator{checker: engine}
}

type tokenAuthenticator struct {
	checker tokenChecker
}

func (a tokenAuthenticator) CheckLogin(ctx context.Context) bool {
	if a.checker == nil {
		return false
	}
	_, ok := a.checker.CheckToken(ctx, goAdmin.SessionTokenFromContext(ctx))
	return ok
}

// RequestToken returns the session token from the Authorization header or,
// failing that, from TokenCookie.
func RequestToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	c, err := r.Cookie(TokenCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

// ClientIP stores the remote host of the request for audit events.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "" {
			r = r.WithContext(goAdmin.WithClientIP(r.Context(), host))
		}
		next.ServeHTTP(w, r)
	})
}
