package router

// Class classifies a route for the guard.
type Class uint8

const (
	// ClassProtected routes require an authenticated session.
	ClassProtected Class = iota
	// ClassPublic routes are reachable without a session.
	ClassPublic
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Meta is the metadata a route declares for the guard.
type Meta struct {
	Title string
	Class Class
}

// CatchAllPath marks the route used for paths that match nothing else.
const CatchAllPath = "*"

const (
	// LoginPath is the login route of the default tree.
	LoginPath = "/login"
	// LandingPath is where authenticated users land by default.
	LandingPath = "/dashboard"
)

// Route is one node of the route tree. Child paths are relative to their
// parent unless they start with a slash. A route with Redirect set is a
// pure redirect and needs no Meta.
type Route struct {
	Path     string
	Name     string
	Redirect string
	Meta     Meta
	Children []Route
}

// DefaultRoutes returns the admin console route tree.
func DefaultRoutes() []Route {
	return []Route{
		{Path: LoginPath, Name: "Login", Meta: Meta{Title: "Login", Class: ClassPublic}},
		{
			Path:     "/",
			Redirect: LandingPath,
			Children: []Route{
				{Path: "dashboard", Name: "Dashboard", Meta: Meta{Title: "Dashboard"}},
				{
					Path:     "products",
					Name:     "Products",
					Redirect: "/products/list",
					Children: []Route{
						{Path: "list", Name: "ProductList", Meta: Meta{Title: "Product List"}},
						{Path: "category", Name: "ProductCategory", Meta: Meta{Title: "Product Categories"}},
					},
				},
				{
					Path:     "orders",
					Name:     "Orders",
					Redirect: "/orders/list",
					Children: []Route{
						{Path: "list", Name: "OrderList", Meta: Meta{Title: "Order List"}},
						{Path: "delivery", Name: "OrderDelivery", Meta: Meta{Title: "Delivery"}},
					},
				},
				{
					Path:     "users",
					Name:     "Users",
					Redirect: "/users/list",
					Children: []Route{
						{Path: "list", Name: "UserList", Meta: Meta{Title: "User List"}},
						{Path: "roles", Name: "UserRoles", Meta: Meta{Title: "Roles"}},
					},
				},
				{
					Path: "settings",
					Name: "Settings",
					Meta: Meta{Title: "Settings"},
					Children: []Route{
						{Path: "profile", Name: "Profile", Meta: Meta{Title: "Profile"}},
						{Path: "password", Name: "Password", Meta: Meta{Title: "Change Password"}},
					},
				},
			},
		},
		{Path: CatchAllPath, Name: "NotFound", Meta: Meta{Title: "404", Class: ClassPublic}},
	}
}
