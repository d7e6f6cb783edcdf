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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	"github.com/jrsteele09/go-sfdc-login/accounts/pgrepo"
	"github.com/jrsteele09/go-sfdc-login/accounts/repofake"
	"github.com/jrsteele09/go-sfdc-login/auth"
	"github.com/jrsteele09/go-sfdc-login/internal/config"
	"github.com/jrsteele09/go-sfdc-login/internal/metrics"
	"github.com/jrsteele09/go-sfdc-login/salesforce"
	"github.com/jrsteele09/go-sfdc-login/server"
	"github.com/jrsteele09/go-sfdc-login/sessions"
	"github.com/jrsteele09/go-sfdc-login/sessions/memory"
	"github.com/jrsteele09/go-sfdc-login/sessions/redisrepo"
	"github.com/jrsteele09/go-sfdc-login/token"
	"github.com/jrsteele09/go-sfdc-login/token/jwt"
)

const shutdownTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load(".env")

	var configPath string
	root := &cobra.Command{
		Use:          "sfdc-login",
		Short:        "Salesforce social login service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default config.yaml if present)")

	root.AddCommand(
		serveCommand(&configPath),
		keygenCommand(),
		encryptCommand(&configPath),
		decryptCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the login service",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c)
		},
	}
}

func run(ctx context.Context, c *config.Settings) (returnError error) {
	logger := newLogger(c)
	log.Logger = logger
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := buildDeps(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	handler, err := server.New(c, deps, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv, logger) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	return shutdown(srv)
}

// buildDeps wires storage, crypto and the login service from the settings.
// Redis and Postgres are used when configured, in-memory stores otherwise.
func buildDeps(ctx context.Context, c *config.Settings, logger zerolog.Logger) (server.Deps, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	cipher, err := token.NewCipherFromString(c.GetEncryptionKey())
	if err != nil {
		return server.Deps{}, nil, err
	}
	signingKey, err := sessionSigningKey(c, cipher)
	if err != nil {
		return server.Deps{}, nil, err
	}
	issuer, err := jwt.NewSessionIssuer(c.GetBaseURL(), signingKey, c.GetLoginSessionTTL())
	if err != nil {
		return server.Deps{}, nil, err
	}

	var sessionRepo sessions.Repo
	if url := c.GetRedisURL(); url != "" {
		client, err := redisrepo.Connect(ctx, url)
		if err != nil {
			return server.Deps{}, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		sessionRepo = redisrepo.New(client)
		logger.Info().Msg("sessions: redis")
	} else {
		sessionRepo = memory.New(c.GetMaxSessionAge())
		logger.Info().Msg("sessions: in-memory")
	}

	var accountRepo accounts.Repo
	if url := c.GetDatabaseURL(); url != "" {
		pool, err := pgrepo.Connect(ctx, url)
		if err != nil {
			closeAll()
			return server.Deps{}, nil, err
		}
		closers = append(closers, pool.Close)
		repo := pgrepo.New(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return server.Deps{}, nil, err
		}
		accountRepo = repo
		logger.Info().Msg("accounts: postgres")
	} else {
		accountRepo = repofake.NewFakeAccountRepo()
		logger.Warn().Msg("accounts: in-memory, logins are lost on restart")
	}

	m := metrics.New()
	client := salesforce.NewClient(&http.Client{}, c.GetHTTPTimeout())
	login, err := auth.NewLoginService(cipher, client, auth.WithLogger(logger), auth.WithMetrics(m))
	if err != nil {
		closeAll()
		return server.Deps{}, nil, err
	}

	return server.Deps{
		Sessions:   sessionRepo,
		Accounts:   accountRepo,
		Normalizer: token.NewNormalizer(cipher),
		Issuer:     issuer,
		Login:      login,
		Client:     client,
		Metrics:    m,
	}, closeAll, nil
}

// sessionSigningKey returns the configured app session key, or one derived
// from the encryption key when none is set.
func sessionSigningKey(c *config.Settings, cipher *token.Cipher) ([]byte, error) {
	if raw := c.GetSessionSigningKey(); raw != "" {
		return token.ParseKey(raw)
	}
	return cipher.DeriveKey("session", token.KeySize)
}

func newLogger(c *config.Settings) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if c.GetLogPretty() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", c.GetAppName()).Logger()
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
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
