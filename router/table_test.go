package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoutesCompile(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	cases := map[string]struct {
		name  string
		path  string
		title string
		class Class
	}{
		"/login":             {"Login", "/login", "Login", ClassPublic},
		"/":                  {"Dashboard", "/dashboard", "Dashboard", ClassProtected},
		"/dashboard":         {"Dashboard", "/dashboard", "Dashboard", ClassProtected},
		"/products":          {"ProductList", "/products/list", "Product List", ClassProtected},
		"/products/category": {"ProductCategory", "/products/category", "Product Categories", ClassProtected},
		"/orders":            {"OrderList", "/orders/list", "Order List", ClassProtected},
		"/orders/delivery":   {"OrderDelivery", "/orders/delivery", "Delivery", ClassProtected},
		"/users":             {"UserList", "/users/list", "User List", ClassProtected},
		"/users/roles":       {"UserRoles", "/users/roles", "Roles", ClassProtected},
		"/settings":          {"Settings", "/settings", "Settings", ClassProtected},
		"/settings/profile":  {"Profile", "/settings/profile", "Profile", ClassProtected},
		"/settings/password": {"Password", "/settings/password", "Change Password", ClassProtected},
	}

	for in, want := range cases {
		m, err := table.Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, want.name, m.Name, in)
		assert.Equal(t, want.path, m.Path, in)
		assert.Equal(t, want.title, m.Meta.Title, in)
		assert.Equal(t, want.class, m.Meta.Class, in)
		assert.False(t, m.NotFound, in)
	}
}

func TestResolveKeepsQueryAndRecordsRedirect(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	m, err := table.Resolve("/products?page=2#top")
	require.NoError(t, err)
	assert.Equal(t, "/products/list", m.Path)
	assert.Equal(t, "/products/list?page=2#top", m.FullPath)
	assert.Equal(t, "/products", m.RedirectedFrom)

	m, err = table.Resolve("/settings/")
	require.NoError(t, err)
	assert.Equal(t, "/settings", m.Path)
	assert.Empty(t, m.RedirectedFrom)
}

func TestResolveFallsBackToCatchAll(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	m, err := table.Resolve("/no/such/page?x=1")
	require.NoError(t, err)
	assert.True(t, m.NotFound)
	assert.Equal(t, "NotFound", m.Name)
	assert.Equal(t, "/no/such/page", m.Path)
	assert.Equal(t, "/no/such/page?x=1", m.FullPath)
	assert.Equal(t, ClassPublic, m.Meta.Class)
	assert.Equal(t, "404", m.Meta.Title)
}

func TestResolveWithoutCatchAll(t *testing.T) {
	table, err := NewTable([]Route{{Path: "/a", Meta: Meta{Title: "A"}}})
	require.NoError(t, err)

	_, err = table.Resolve("/b")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestNewTableRejectsBadTrees(t *testing.T) {
	cases := map[string]struct {
		routes []Route
		want   error
	}{
		"missing title": {
			routes: []Route{{Path: "/a"}},
			want:   ErrInvalidRoute,
		},
		"relative redirect": {
			routes: []Route{{Path: "/a", Redirect: "b"}},
			want:   ErrInvalidRoute,
		},
		"dangling redirect": {
			routes: []Route{{Path: "/a", Redirect: "/b"}},
			want:   ErrRouteNotFound,
		},
		"redirect loop": {
			routes: []Route{{Path: "/a", Redirect: "/b"}, {Path: "/b", Redirect: "/a"}},
			want:   ErrRedirectLoop,
		},
		"duplicate": {
			routes: []Route{
				{Path: "/a", Meta: Meta{Title: "A"}},
				{Path: "/", Redirect: "/a", Children: []Route{{Path: "a", Meta: Meta{Title: "A2"}}}},
			},
			want: ErrDuplicateRoute,
		},
		"two catch-alls": {
			routes: []Route{
				{Path: CatchAllPath, Meta: Meta{Title: "404"}},
				{Path: CatchAllPath, Meta: Meta{Title: "404"}},
			},
			want: ErrDuplicateRoute,
		},
		"nested catch-all": {
			routes: []Route{{Path: CatchAllPath, Meta: Meta{Title: "404"}, Children: []Route{{Path: "x", Meta: Meta{Title: "X"}}}}},
			want:   ErrInvalidRoute,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(tc.routes)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLookupDoesNotFollowRedirects(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	_, ok := table.Lookup("/orders")
	assert.True(t, ok)
	_, ok = table.Lookup("/orders/missing")
	assert.False(t, ok)
}

func TestClassZeroValueIsProtected(t *testing.T) {
	var m Meta
	assert.Equal(t, ClassProtected, m.Class)
	assert.Equal(t, "protected", m.Class.String())
	assert.Equal(t, "public", ClassPublic.String())
}
