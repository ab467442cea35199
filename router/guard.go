package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrNilGuard is returned when a method runs on a nil guard.
	ErrNilGuard = errors.New("nil guard")
	// ErrTooManyRedirects is returned by Push when guard redirects do not settle.
	ErrTooManyRedirects = errors.New("too many guard redirects")
	// ErrInvalidGuardConfig reports a guard configuration that cannot work.
	ErrInvalidGuardConfig = errors.New("invalid guard configuration")
)

// State is the guard's transition state.
type State int32

const (
	StateIdle State = iota
	StateInTransition
)

func (s State) String() string {
	if s == StateInTransition {
		return "in_transition"
	}
	return "idle"
}

// Authenticator answers whether a session is active.
type Authenticator interface {
	CheckLogin(ctx context.Context) bool
}

// Progress is the loading indicator driven by each navigation. Done is
// called exactly once for every Start.
type Progress interface {
	Start()
	Done()
}

// TitleSink receives the page title of each navigation.
type TitleSink interface {
	SetTitle(title string)
}

// Recorder receives the outcome and duration of each completed navigation.
type Recorder interface {
	RecordNavigation(redirected bool, elapsed time.Duration)
}

// Decision is the guard's verdict for one navigation. Exactly one of
// Allowed or Redirect is set.
type Decision struct {
	Allowed       bool
	Redirect      string
	Route         Match
	Title         string
	Authenticated bool
}

// GuardConfig configures a Guard. Progress, Titles and Recorder are optional.
type GuardConfig struct {
	TitleSuffix  string
	LoginPath    string
	LandingPath  string
	MaxRedirects int
	Progress     Progress
	Titles       TitleSink
	Recorder     Recorder
}

// DefaultGuardConfig returns the admin console guard settings.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		TitleSuffix:  "Admin Console",
		LoginPath:    LoginPath,
		LandingPath:  LandingPath,
		MaxRedirects: 4,
	}
}

// Guard decides route transitions. It is safe for concurrent use; State
// reports InTransition while any navigation is in flight.
type Guard struct {
	table    *Table
	auth     Authenticator
	cfg      GuardConfig
	inflight atomic.Int64
}

// NewGuard validates cfg against table and returns a guard.
func NewGuard(table *Table, auth Authenticator, cfg GuardConfig) (*Guard, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil route table", ErrInvalidGuardConfig)
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: nil authenticator", ErrInvalidGuardConfig)
	}
	if cfg.MaxRedirects < 1 {
		return nil, fmt.Errorf("%w: MaxRedirects must be >= 1", ErrInvalidGuardConfig)
	}

	login, err := table.Resolve(cfg.LoginPath)
	if err != nil || login.NotFound {
		return nil, fmt.Errorf("%w: login path %q is not a route", ErrInvalidGuardConfig, cfg.LoginPath)
	}
	if login.Meta.Class != ClassPublic {
		return nil, fmt.Errorf("%w: login route must be public", ErrInvalidGuardConfig)
	}
	landing, err := table.Resolve(cfg.LandingPath)
	if err != nil || landing.NotFound {
		return nil, fmt.Errorf("%w: landing path %q is not a route", ErrInvalidGuardConfig, cfg.LandingPath)
	}

	cfg.LoginPath = login.Path
	cfg.LandingPath = landing.Path
	return &Guard{table: table, auth: auth, cfg: cfg}, nil
}

// State reports whether a navigation is running.
func (g *Guard) State() State {
	if g == nil || g.inflight.Load() == 0 {
		return StateIdle
	}
	return StateInTransition
}

// Table returns the guard's route table.
func (g *Guard) Table() *Table {
	if g == nil {
		return nil
	}
	return g.table
}

// Navigate runs the guard for one transition to fullPath.
func (g *Guard) Navigate(ctx context.Context, fullPath string) (Decision, error) {
	if g == nil {
		return Decision{}, ErrNilGuard
	}

	start := time.Now()
	g.inflight.Add(1)
	if g.cfg.Progress != nil {
		g.cfg.Progress.Start()
	}
	defer func() {
		if g.cfg.Progress != nil {
			g.cfg.Progress.Done()
		}
		g.inflight.Add(-1)
	}()

	match, err := g.table.Resolve(fullPath)
	if err != nil {
		return Decision{}, err
	}

	title := match.Meta.Title
	if g.cfg.TitleSuffix != "" {
		title += " - " + g.cfg.TitleSuffix
	}
	if g.cfg.Titles != nil {
		g.cfg.Titles.SetTitle(title)
	}

	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	authenticated := g.auth.CheckLogin(ctx)

	d := Decision{Route: match, Title: title, Authenticated: authenticated}
	switch {
	case match.Meta.Class == ClassPublic:
		if authenticated && !match.NotFound && match.Path == g.cfg.LoginPath {
			d.Redirect = g.cfg.LandingPath
		} else {
			d.Allowed = true
		}
	case authenticated:
		d.Allowed = true
	default:
		d.Redirect = LoginRedirect(g.cfg.LoginPath, match.FullPath)
	}

	if g.cfg.Recorder != nil {
		g.cfg.Recorder.RecordNavigation(!d.Allowed, time.Since(start))
	}
	return d, nil
}

// Push navigates to fullPath and follows guard redirects until a transition
// is allowed. The returned decision is the final, allowed one.
func (g *Guard) Push(ctx context.Context, fullPath string) (Decision, error) {
	if g == nil {
		return Decision{}, ErrNilGuard
	}

	path := fullPath
	for hop := 0; hop <= g.cfg.MaxRedirects; hop++ {
		d, err := g.Navigate(ctx, path)
		if err != nil {
			return Decision{}, err
		}
		if d.Allowed {
			return d, nil
		}
		path = d.Redirect
	}
	return Decision{}, fmt.Errorf("%w: last target %q", ErrTooManyRedirects, path)
}

// LoginRedirect builds the login URL that carries the originally requested
// path in the redirect query parameter. Slashes stay literal.
func LoginRedirect(loginPath, fullPath string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(fullPath), "%2F", "/")
	return loginPath + "?redirect=" + escaped
}

// SafeRedirect returns target when it is a local absolute path, else
// fallback. It is meant for the redirect query parameter after login.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
