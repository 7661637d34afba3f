// Package session owns the authentication token and user identity for the
// metricshub client: interactive login, adoption of hub-issued tokens (SSO),
// restoration from durable storage and logout. It is the only authority for
// "is the user logged in and as whom".
package session

// Role is the metricshub-side role a user acts under.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Origin records how the session was established. It only influences where
// logout sends the user.
type Origin string

const (
	// OriginInternal marks sessions created by interactive login.
	OriginInternal Origin = "internal"
	// OriginExternal marks sessions adopted from a hub SSO handoff.
	OriginExternal Origin = "external"
)

// User is the identity bound to a session. It is always persisted together
// with the token, never on its own.
type User struct {
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
}

// Session is the in-memory authenticated state.
type Session struct {
	Token  string
	User   User
	Origin Origin
}

// RedirectTargetKind identifies where the UI should land after logout.
type RedirectTargetKind string

const (
	// RedirectInternalLogin sends the user to the app's own login screen.
	RedirectInternalLogin RedirectTargetKind = "internal-login"
	// RedirectExternalHub sends the user back to the hub that issued the
	// session.
	RedirectExternalHub RedirectTargetKind = "external-hub"
)

// RedirectTarget is the post-logout destination. HubURL is set only for
// RedirectExternalHub.
type RedirectTarget struct {
	Kind   RedirectTargetKind
	HubURL string
}
