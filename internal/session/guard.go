package session

// Well-known view routes.
const (
	RouteHome     = "/"
	RouteLogin    = "/login"
	RouteRegister = "/register"
)

// Guard is the route-guarding decision for paths that opt into guarding.
// It is a pure function of the path and the derived authenticated state:
// authenticated sessions are sent away from the auth routes back to the
// catalog, unauthenticated sessions are sent from any other guarded path to
// the login route. Ungated routes (the catalog and product pages) never
// consult it.
func Guard(path string, authenticated bool) (redirect string, allowed bool) {
	isAuthRoute := path == RouteLogin || path == RouteRegister

	if authenticated {
		if isAuthRoute {
			return RouteHome, false
		}
		return "", true
	}
	if isAuthRoute {
		return "", true
	}
	return RouteLogin, false
}
