package router

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	loggedIn atomic.Bool
	calls    atomic.Int64
	onCheck  func()
}

func (f *fakeAuth) CheckLogin(context.Context) bool {
	f.calls.Add(1)
	if f.onCheck != nil {
		f.onCheck()
	}
	return f.loggedIn.Load()
}

type countingProgress struct {
	starts atomic.Int64
	dones  atomic.Int64
}

func (p *countingProgress) Start() { p.starts.Add(1) }
func (p *countingProgress) Done()  { p.dones.Add(1) }

type titleRecorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *titleRecorder) SetTitle(title string) {
	r.mu.Lock()
	r.titles = append(r.titles, title)
	r.mu.Unlock()
}

func (r *titleRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.titles) == 0 {
		return ""
	}
	return r.titles[len(r.titles)-1]
}

type navRecorder struct {
	allowed    atomic.Int64
	redirected atomic.Int64
}

func (r *navRecorder) RecordNavigation(redirected bool, _ time.Duration) {
	if redirected {
		r.redirected.Add(1)
		return
	}
	r.allowed.Add(1)
}

type guardFixture struct {
	guard    *Guard
	auth     *fakeAuth
	progress *countingProgress
	titles   *titleRecorder
	recorder *navRecorder
}

func newGuardFixture(t *testing.T) guardFixture {
	t.Helper()

	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	f := guardFixture{
		auth:     &fakeAuth{},
		progress: &countingProgress{},
		titles:   &titleRecorder{},
		recorder: &navRecorder{},
	}
	cfg := DefaultGuardConfig()
	cfg.Progress = f.progress
	cfg.Titles = f.titles
	cfg.Recorder = f.recorder

	f.guard, err = NewGuard(table, f.auth, cfg)
	require.NoError(t, err)
	return f
}

func TestProtectedRouteRedirectsAnonymousToLogin(t *testing.T) {
	f := newGuardFixture(t)

	d, err := f.guard.Navigate(context.Background(), "/orders/delivery?id=7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "/login?redirect=/orders/delivery%3Fid%3D7", d.Redirect)
	assert.Equal(t, "Delivery - Admin Console", d.Title)
	assert.Equal(t, "Delivery - Admin Console", f.titles.last())
}

func TestProtectedRouteAllowsAuthenticated(t *testing.T) {
	f := newGuardFixture(t)
	f.auth.loggedIn.Store(true)

	d, err := f.guard.Navigate(context.Background(), "/users/roles")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Redirect)
	assert.True(t, d.Authenticated)
	assert.Equal(t, "UserRoles", d.Route.Name)
}

func TestLoginRedirectsAuthenticatedToLanding(t *testing.T) {
	f := newGuardFixture(t)
	f.auth.loggedIn.Store(true)

	d, err := f.guard.Navigate(context.Background(), "/login?redirect=/users")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, LandingPath, d.Redirect)
}

func TestPublicRoutesStayReachable(t *testing.T) {
	f := newGuardFixture(t)

	d, err := f.guard.Navigate(context.Background(), "/login")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	f.auth.loggedIn.Store(true)
	d, err = f.guard.Navigate(context.Background(), "/missing")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Route.NotFound)
	assert.Equal(t, "404 - Admin Console", d.Title)
}

func TestRootRedirectResolvesBeforeGuard(t *testing.T) {
	f := newGuardFixture(t)

	d, err := f.guard.Navigate(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=/dashboard", d.Redirect)
	assert.Equal(t, "/", d.Route.RedirectedFrom)
}

func TestProgressDoneOncePerNavigation(t *testing.T) {
	f := newGuardFixture(t)

	paths := []string{"/dashboard", "/login", "/missing", "/products"}
	for _, p := range paths {
		_, err := f.guard.Navigate(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, StateIdle, f.guard.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.guard.Navigate(ctx, "/dashboard")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, int64(len(paths)+1), f.progress.starts.Load())
	assert.Equal(t, int64(len(paths)+1), f.progress.dones.Load())
	assert.Equal(t, StateIdle, f.guard.State())
}

func TestCancelledNavigationSkipsCheck(t *testing.T) {
	f := newGuardFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.guard.Navigate(ctx, "/dashboard")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.auth.calls.Load())
	assert.Zero(t, f.recorder.allowed.Load()+f.recorder.redirected.Load())
}

func TestStateInTransitionDuringCheck(t *testing.T) {
	f := newGuardFixture(t)

	var observed State
	f.auth.onCheck = func() { observed = f.guard.State() }

	_, err := f.guard.Navigate(context.Background(), "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, StateInTransition, observed)
	assert.Equal(t, StateIdle, f.guard.State())
}

func TestRecorderSeesOutcomes(t *testing.T) {
	f := newGuardFixture(t)

	_, err := f.guard.Navigate(context.Background(), "/dashboard")
	require.NoError(t, err)
	_, err = f.guard.Navigate(context.Background(), "/login")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.recorder.redirected.Load())
	assert.Equal(t, int64(1), f.recorder.allowed.Load())
}

func TestPushFollowsGuardRedirects(t *testing.T) {
	f := newGuardFixture(t)

	d, err := f.guard.Push(context.Background(), "/settings/password")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "/login", d.Route.Path)
	assert.Equal(t, "/login?redirect=/settings/password", d.Route.FullPath)

	f.auth.loggedIn.Store(true)
	d, err = f.guard.Push(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", d.Route.Path)
}

func TestPushStopsOnRedirectCycle(t *testing.T) {
	routes := []Route{
		{Path: "/login", Meta: Meta{Title: "Login", Class: ClassPublic}},
		{Path: "/home", Meta: Meta{Title: "Home"}},
	}
	table, err := NewTable(routes)
	require.NoError(t, err)

	// Landing is protected and the authenticator flips each call, so the
	// guard bounces between login and home forever.
	auth := &fakeAuth{}
	auth.onCheck = func() { auth.loggedIn.Store(!auth.loggedIn.Load()) }
	cfg := DefaultGuardConfig()
	cfg.LandingPath = "/home"
	g, err := NewGuard(table, auth, cfg)
	require.NoError(t, err)

	_, err = g.Push(context.Background(), "/login")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestNewGuardValidation(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	_, err = NewGuard(nil, &fakeAuth{}, DefaultGuardConfig())
	assert.ErrorIs(t, err, ErrInvalidGuardConfig)

	_, err = NewGuard(table, nil, DefaultGuardConfig())
	assert.ErrorIs(t, err, ErrInvalidGuardConfig)

	cfg := DefaultGuardConfig()
	cfg.LoginPath = "/dashboard"
	_, err = NewGuard(table, &fakeAuth{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidGuardConfig)

	cfg = DefaultGuardConfig()
	cfg.LandingPath = "/nowhere"
	_, err = NewGuard(table, &fakeAuth{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidGuardConfig)

	cfg = DefaultGuardConfig()
	cfg.MaxRedirects = 0
	_, err = NewGuard(table, &fakeAuth{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidGuardConfig)
}

func TestNilGuard(t *testing.T) {
	var g *Guard
	_, err := g.Navigate(context.Background(), "/")
	assert.ErrorIs(t, err, ErrNilGuard)
	assert.Equal(t, StateIdle, g.State())
}

func TestLoginRedirectEscaping(t *testing.T) {
	assert.Equal(t, "/login?redirect=/a/b", LoginRedirect("/login", "/a/b"))
	assert.Equal(t, "/login?redirect=/a%3Fq%3Dx+y%26z%3D1", LoginRedirect("/login", "/a?q=x y&z=1"))
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/orders/list", SafeRedirect("/orders/list", "/dashboard"))
	assert.Equal(t, "/dashboard", SafeRedirect("", "/dashboard"))
	assert.Equal(t, "/dashboard", SafeRedirect("https://evil.example", "/dashboard"))
	assert.Equal(t, "/dashboard", SafeRedirect("//evil.example/x", "/dashboard"))
	assert.Equal(t, "/dashboard", SafeRedirect("orders", "/dashboard"))
}
