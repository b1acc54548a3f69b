package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/api"
	"github.com/abhisek/coursiz/internal/auth"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the course engine over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides COURSIZ_HTTP_ADDR)")
	serveCmd.Flags().Bool("dev-tokens", false, "Enable POST /auth/token for local development")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	devTokens, _ := cmd.Flags().GetBool("dev-tokens")

	log, err := logger.New(logger.Options{Mode: cfg.LogMode, Debug: cfg.LogDebug})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var guests ledger.Store = ledger.NewMemoryStore()
	if cfg.RedisURL != "" {
		client, err := ledger.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		guests = ledger.NewRedisStore(client, ledger.DefaultGuestTTL)
		log.Info("guest progress in redis", "ttl", ledger.DefaultGuestTTL.String())
	} else {
		log.Warn("COURSIZ_REDIS_URL not set; guest progress is kept in memory")
	}

	if cfg.UsesDevSecret() {
		log.Warn("COURSIZ_JWT_SECRET not set; member tokens use the development secret and can be forged")
	}

	eng, err := newEngine(cfg, cat, st, guests, log)
	if err != nil {
		return err
	}
	defer eng.Wait()

	srv := api.New(eng, auth.NewService(cfg.JWTSecret), log, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		DevTokens:   devTokens,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "catalog", cat.Version, "dialect", st.Dialect())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
