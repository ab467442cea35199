package router

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRoute reports a route declaration that cannot be compiled.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrDuplicateRoute reports two routes compiling to the same path.
	ErrDuplicateRoute = errors.New("duplicate route path")
	// ErrRedirectLoop reports a redirect chain longer than the hop limit.
	ErrRedirectLoop = errors.New("route redirect loop")
	// ErrRouteNotFound is returned by Resolve when nothing matches and the
	// table has no catch-all route.
	ErrRouteNotFound = errors.New("route not found")
)

// MaxRedirectHops bounds parent redirect chains during resolution.
const MaxRedirectHops = 8

// Match is a resolved route.
type Match struct {
	Name string
	// Path is the matched path after redirects, without query or fragment.
	Path string
	// FullPath is Path plus the query and fragment of the request.
	FullPath string
	Meta     Meta
	// RedirectedFrom is the requested path when a parent redirect applied.
	RedirectedFrom string
	NotFound       bool
}

type entry struct {
	name     string
	path     string
	redirect string
	meta     Meta
}

// Table is a compiled route tree. It is immutable and safe for concurrent use.
type Table struct {
	entries  map[string]entry
	catchAll *entry
}

// NewTable flattens routes into a lookup table. Every redirect target must
// exist and every non-redirect route needs a title.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{entries: make(map[string]entry)}
	for _, r := range routes {
		if err := t.add("/", r); err != nil {
			return nil, err
		}
	}

	for path, e := range t.entries {
		if e.redirect == "" {
			continue
		}
		if _, err := t.follow(path); err != nil {
			return nil, fmt.Errorf("route %q: %w", path, err)
		}
	}

	return t, nil
}

func (t *Table) add(parent string, r Route) error {
	if r.Path == CatchAllPath {
		if len(r.Children) > 0 || r.Redirect != "" {
			return fmt.Errorf("%w: catch-all route cannot redirect or nest", ErrInvalidRoute)
		}
		if t.catchAll != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateRoute, CatchAllPath)
		}
		if r.Meta.Title == "" {
			return fmt.Errorf("%w: catch-all route needs a title", ErrInvalidRoute)
		}
		t.catchAll = &entry{name: r.Name, path: CatchAllPath, meta: r.Meta}
		return nil
	}

	full := joinPath(parent, r.Path)
	if r.Path == "" && parent == "/" {
		return fmt.Errorf("%w: empty top-level path", ErrInvalidRoute)
	}
	if r.Redirect == "" && r.Meta.Title == "" {
		return fmt.Errorf("%w: route %q needs a title or a redirect", ErrInvalidRoute, full)
	}
	if r.Redirect != "" && !strings.HasPrefix(r.Redirect, "/") {
		return fmt.Errorf("%w: route %q redirect must be absolute", ErrInvalidRoute, full)
	}
	if _, exists := t.entries[full]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, full)
	}

	t.entries[full] = entry{
		name:     r.Name,
		path:     full,
		redirect: normalizePath(r.Redirect),
		meta:     r.Meta,
	}

	for _, child := range r.Children {
		if err := t.add(full, child); err != nil {
			return err
		}
	}
	return nil
}

// Resolve matches fullPath, following parent redirects. Unknown paths
// resolve to the catch-all route with the requested path preserved.
func (t *Table) Resolve(fullPath string) (Match, error) {
	path, suffix := splitPath(fullPath)

	e, err := t.follow(path)
	if errors.Is(err, ErrRouteNotFound) && t.catchAll != nil {
		return Match{
			Name:     t.catchAll.name,
			Path:     path,
			FullPath: path + suffix,
			Meta:     t.catchAll.meta,
			NotFound: true,
		}, nil
	}
	if err != nil {
		return Match{}, err
	}

	m := Match{
		Name:     e.name,
		Path:     e.path,
		FullPath: e.path + suffix,
		Meta:     e.meta,
	}
	if e.path != path {
		m.RedirectedFrom = path
	}
	return m, nil
}

// Lookup reports whether path names a declared route, without following
// redirects.
func (t *Table) Lookup(path string) (Meta, bool) {
	e, ok := t.entries[normalizePath(path)]
	return e.meta, ok
}

func (t *Table) follow(path string) (entry, error) {
	for hop := 0; hop <= MaxRedirectHops; hop++ {
		e, ok := t.entries[path]
		if !ok {
			return entry{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
		}
		if e.redirect == "" {
			return e, nil
		}
		path = e.redirect
	}
	return entry{}, ErrRedirectLoop
}

func joinPath(parent, child string) string {
	if strings.HasPrefix(child, "/") {
		return normalizePath(child)
	}
	if child == "" {
		return parent
	}
	return normalizePath(strings.TrimSuffix(parent, "/") + "/" + child)
}

func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// splitPath separates the path from its query and fragment suffix.
func splitPath(fullPath string) (string, string) {
	cut := strings.IndexAny(fullPath, "?#")
	if cut < 0 {
		return normalizeRequestPath(fullPath), ""
	}
	return normalizeRequestPath(fullPath[:cut]), fullPath[cut:]
}

func normalizeRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	return normalizePath(p)
}
