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
	"github.com/jrsteele09/paramed-portal/gateway"
	"github.com/jrsteele09/paramed-portal/internal/config"
	"github.com/jrsteele09/paramed-portal/internal/logging"
	"github.com/jrsteele09/paramed-portal/locale"
	"github.com/jrsteele09/paramed-portal/server"
	"github.com/jrsteele09/paramed-portal/session"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running portal")
	}
	log.Info().Msg("Portal stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	storage, closeStorage, err := openStorage(ctx, c)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := session.New(storage)
	gw, err := gateway.New(c.GetAPIBaseURL(), store,
		gateway.WithTimeout(c.GetAPITimeout()),
		gateway.WithLogoutTimeout(c.GetLogoutTimeout()),
	)
	if err != nil {
		return err
	}
	catalog, err := locale.New(c.GetDefaultLanguage())
	if err != nil {
		return err
	}
	shell, err := server.New(c, store, gw, catalog)
	if err != nil {
		return err
	}

	// Restore before serving so the first request already sees the cached session.
	verified := gw.Restore(ctx)

	srv := &http.Server{Addr: c.GetListenAddr(), Handler: shell, ReadHeaderTimeout: 10 * time.Second}
	srv.RegisterOnShutdown(shell.Close)
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(srv)
	<-verified
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Portal listening")
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
