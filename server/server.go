package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/internal/config"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/rs/zerolog/log"
)

const (
	colourRed   = "\033[31m"
	colourGreen = "\033[32m"
	colourBlue  = "\033[34m"
	colourCyan  = "\033[36m"
	colourGray  = "\033[90m"
	colourReset = "\033[0m"
)

var methodColours = map[string]string{
	"GET":  colourGreen,
	"POST": colourBlue,
	"PUT":  colourCyan,
}

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	auth        *auth.Service
	players     players.Repo
	healthCheck func(ctx context.Context) error
}

type Option func(*Server)

// WithHealthCheck sets the probe behind /healthz, usually the database ping.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

func New(c config.Config, authService *auth.Service, playerRepo players.Repo, opts ...Option) (*Server, error) {
	if c == nil || authService == nil || playerRepo == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[Server New] config, auth service and player repo are required")
	}

	s := &Server{
		env:         c.GetEnv(),
		mux:         http.NewServeMux(),
		config:      c,
		auth:        authService,
		players:     playerRepo,
		healthCheck: func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if colour, ok := methodColours[method]; ok {
		return colour + paddedMethod + colourReset
	}
	return colourGray + paddedMethod + colourReset
}
