package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/internal/config"
	"github.com/gubbhockey/clubhouse/pkce"
	"github.com/gubbhockey/clubhouse/server"
	"github.com/gubbhockey/clubhouse/storage/redisstore"
	"github.com/gubbhockey/clubhouse/storage/sqlstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.LoadEnv(ctx, ".env")
	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	store, err := sqlstore.Open(ctx, c.GetDatabaseDriver(), c.GetDatabaseURL())
	if err != nil {
		return err
	}
	defer store.Close()

	pkceRepo, closePKCE, err := pkceStore(ctx, c, store)
	if err != nil {
		return err
	}
	defer closePKCE()

	provider, err := auth.NewOIDCProvider(ctx, c)
	if err != nil {
		return err
	}

	cookies, err := auth.NewCookieCodec(c.GetCookieSecret(), !c.GetCookieInsecure(), c.GetSessionTTL())
	if err != nil {
		return err
	}
	if !cookies.Signed() {
		log.Warn().Msg("SESSION_COOKIE_SECRET is not set, session cookies are unsigned")
	}

	authService, err := auth.NewService(auth.Repos{
		PKCE:     pkceRepo,
		Sessions: store.Sessions(),
		Players:  store.Players(),
	}, provider,
		auth.WithPKCETimeout(c.GetPKCETimeout()),
		auth.WithSessionTTL(c.GetSessionTTL()),
		auth.WithCookieCodec(cookies),
	)
	if err != nil {
		return err
	}

	handler, err := server.New(c, authService, store.Players(), server.WithHealthCheck(store.Ping))
	if err != nil {
		return err
	}

	hour, minute := c.GetSweepAt()
	go auth.NewSweeper(authService, hour, minute).Run(ctx)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	return shutdown(httpServer)
}

// pkceStore keeps pending logins in Redis when REDIS_URL is set and in the
// SQL database otherwise.
func pkceStore(ctx context.Context, c config.Config, store *sqlstore.Store) (pkce.Repo, func(), error) {
	if c.GetRedisURL() == "" {
		return store.PKCE(), func() {}, nil
	}
	client, err := redisstore.Connect(ctx, c.GetRedisURL())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("Pending logins are stored in Redis")
	return redisstore.NewPKCEStore(client), func() { _ = client.Close() }, nil
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
