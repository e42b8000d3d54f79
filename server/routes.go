package server

import "github.com/gubbhockey/clubhouse/players"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))

	// Player API
	s.RegisterRouteHandler("GET "+RouteAPIWhoAmI, ChainMiddleware(s.WhoAmIHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("PUT "+RouteAPIMeGoalkeeper, ChainMiddleware(s.SetGoalkeeperHandler(), s.APIMiddleware(s.RequireSessionAuth())...))

	// Admin API (RequireAdmin runs before any handler touches persistence)
	s.RegisterRouteHandler("GET "+RouteAPIAdminPlayers, ChainMiddleware(s.AdminListPlayersHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteAPIAdminPromote, ChainMiddleware(s.AdminSetAccessGroupHandler(players.AccessGroupAdmin), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteAPIAdminDemote, ChainMiddleware(s.AdminSetAccessGroupHandler(players.AccessGroupUser), s.APIMiddleware(s.RequireAdmin())...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
