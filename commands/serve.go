package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"inkwell/common"
	"inkwell/database"
)

var (
	port      string
	noMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the public site, the admin area and the live streams.

Examples:
  inkwell serve                 # listen on $PORT (default 8080)
  inkwell serve --port 3000     # listen on another port
  inkwell serve --no-migrate    # skip the schema update on start`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "Port to listen on, overrides PORT")
	serveCmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "Do not run migrations on start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := loadConfig()
	if port != "" {
		cfg.Port = port
	}
	log := common.Logger("server")

	db, err := common.ConnectDb(cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if !noMigrate {
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	app, err := NewApp(cfg, db, gin.Default())
	if err != nil {
		return err
	}
	defer app.Close()

	// Request contexts derive from baseCtx so open streams end before
	// Shutdown waits on them.
	baseCtx, cancelRequests := context.WithCancel(ctx)
	defer cancelRequests()

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     app.Router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-stop:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	cancelRequests()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
