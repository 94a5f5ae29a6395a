package session

import "strings"

const (
	LoginPath   = "/login"
	LandingPath = "/home"
)

// Gate decides whether an SPA route may render for the current session.
type Gate struct {
	protected  []string
	publicOnly []string
}

// DefaultGate guards the portal's pages. The root path sends visitors to
// the landing page or the login form.
func DefaultGate() Gate {
	return Gate{
		protected: []string{
			"/home", "/profile", "/championship", "/education", "/knowledge",
			"/rating", "/admin", "/faq", "/welcome",
		},
		publicOnly: []string{"/login", "/register"},
	}
}

// Redirect returns the path to send the visitor to, or "" when path may
// render as is.
func (g Gate) Redirect(path string, authenticated bool) string {
	if path == "" || path == "/" {
		if authenticated {
			return LandingPath
		}
		return LoginPath
	}
	if !authenticated && matchAny(g.protected, path) {
		return LoginPath
	}
	if authenticated && matchAny(g.publicOnly, path) {
		return LandingPath
	}
	return ""
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
