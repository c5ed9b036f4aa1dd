package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/albums"
	"github.com/entwine-labs/entwine/backend/internal/auth"
	"github.com/entwine-labs/entwine/backend/internal/config"
	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/cycle"
	"github.com/entwine-labs/entwine/backend/internal/database"
	"github.com/entwine-labs/entwine/backend/internal/games"
	"github.com/entwine-labs/entwine/backend/internal/ident"
	"github.com/entwine-labs/entwine/backend/internal/letters"
	"github.com/entwine-labs/entwine/backend/internal/logging"
	"github.com/entwine-labs/entwine/backend/internal/milestones"
	"github.com/entwine-labs/entwine/backend/internal/server"
	"github.com/entwine-labs/entwine/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "entwine-api",
		Short: "Entwine couples backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Backend token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Backend signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "entwine-auth",
		Audience:      "entwine-api",
		TokenTTL:      appConfig.TokenTTL,
	})

	idProvider := ident.NewUUIDProvider()
	dispatcher := server.NewRealtimeDispatcher()
	contentNotify := server.ContentNotifier(dispatcher)

	usersService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
	})
	if err != nil {
		return err
	}

	couplesService, err := couples.NewService(couples.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logging.Named(logger, "couples"),
	})
	if err != nil {
		return err
	}

	gamesService, err := games.NewService(games.ServiceConfig{
		Database:    db,
		Clock:       time.Now,
		Memberships: couplesService,
		Publisher:   server.SessionEventPublisher{Dispatcher: dispatcher},
		Logger:      logging.Named(logger, "games"),
	})
	if err != nil {
		return err
	}

	cycleService, err := cycle.NewService(cycle.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Partners:   couplesService,
		Logger:     logging.Named(logger, "cycle"),
	})
	if err != nil {
		return err
	}

	lettersService, err := letters.NewService(letters.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logging.Named(logger, "letters"),
		Notify:     contentNotify,
	})
	if err != nil {
		return err
	}

	albumsService, err := albums.NewService(albums.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logging.Named(logger, "albums"),
		Notify:     contentNotify,
	})
	if err != nil {
		return err
	}

	milestonesService, err := milestones.NewService(milestones.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logging.Named(logger, "milestones"),
		Notify:     contentNotify,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: tokenManager,
		Users:        usersService,
		Couples:      couplesService,
		Games:        gamesService,
		Cycle:        cycleService,
		Letters:      lettersService,
		Albums:       albumsService,
		Milestones:   milestonesService,
		Realtime:     dispatcher,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
