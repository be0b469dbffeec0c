// Command admin runs the admin console API.
//
// Startup validates the required backend configuration eagerly and exits on
// the first missing key. Clients for the backend and the payment gateway are
// built lazily by the handlers that need them.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/R3E-Network/admin_console/internal/clients"
	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/httpapi"
	"github.com/R3E-Network/admin_console/internal/logging"
)

func main() {
	envFile := flag.String("env", "", "Path to a .env file (default: ./.env if present)")
	flag.Parse()

	log, err := bootstrap(*envFile)
	if err != nil {
		log.WithError(err).Fatal("load env file")
	}

	set, err := config.Load()
	if err != nil {
		key, _ := config.MissingKey(err)
		log.WithError(err).WithField("missing_key", key).Fatal("invalid configuration")
	}

	serverCfg, err := config.LoadServer()
	if err != nil {
		log.WithError(err).Fatal("invalid server configuration")
	}

	navCfg, err := config.LoadNavigationOrDefault(serverCfg.NavigationFile)
	if err != nil {
		log.WithError(err).Fatal("invalid navigation configuration")
	}

	done := make(chan struct{})
	defer close(done)

	handler := httpapi.NewHandler(httpapi.Options{
		Clients:        clients.Default(),
		Logger:         log,
		AdminEmail:     set.AdminEmail(),
		Navigation:     navCfg,
		AllowedOrigins: serverCfg.Origins(),
		RateLimitRPS:   serverCfg.RateLimitRPS,
		RateLimitBurst: serverCfg.RateLimitBurst,
		Done:           done,
	})

	server := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", serverCfg.Addr).Info("admin API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Entry().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Entry().Info("admin API stopped")
}

// bootstrap reads the env file and then builds the process logger, so
// LOG_LEVEL and LOG_FORMAT may come from the file. The logger is returned
// even when loading fails.
func bootstrap(envFile string) (*logging.Logger, error) {
	var err error
	if envFile != "" {
		err = config.LoadDotEnv(envFile)
	} else {
		err = config.LoadDotEnv()
	}
	return logging.NewDefault("admin"), err
}
