package server

const (
	RouteIndex    = "/{$}"
	RouteLogin    = "/login"
	RouteCallback = "/auth"
	RouteLogout   = "/logout"
	RouteHealth   = "/healthz"

	// Player API
	RouteAPIWhoAmI       = "/api/whoami"
	RouteAPIMe           = "/api/me"
	RouteAPIMeGoalkeeper = "/api/me/goalkeeper"

	// Admin API
	RouteAPIAdminPlayers = "/api/admin/players"
	RouteAPIAdminPromote = "/api/admin/players/{id}/promote"
	RouteAPIAdminDemote  = "/api/admin/players/{id}/demote"
)
