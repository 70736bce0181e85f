package client

// Decision is what a route guard tells the UI to do
type Decision int

const (
	// ShowLoading: the session has not resolved yet, render a spinner
	ShowLoading Decision = iota
	// RedirectLogin: no authenticated user, send to the login screen
	RedirectLogin
	// RedirectUnauthorized: authenticated but the role does not match
	RedirectUnauthorized
	// Render: all checks passed, render the protected view
	Render
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "show_loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Guard decides whether a protected view may render. The order of checks
// is load-bearing: an unresolved session must yield ShowLoading, never a
// redirect, or users with valid stored sessions get bounced to login on
// every cold start.
func Guard(session *Session, allowedRoles ...string) Decision {
	if !session.Loaded() {
		return ShowLoading
	}

	user := session.User()
	if session.State() != StateAuthenticated || user == nil {
		return RedirectLogin
	}

	// No role restriction: any authenticated user may render
	if len(allowedRoles) == 0 {
		return Render
	}

	for _, role := range allowedRoles {
		if user.Role == role {
			return Render
		}
	}
	return RedirectUnauthorized
}
