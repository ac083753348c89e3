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
	"github.com/jrsteele09/paramed-portal/apifake"
	"github.com/jrsteele09/paramed-portal/internal/config"
	"github.com/jrsteele09/paramed-portal/internal/logging"
	"github.com/rs/zerolog/log"
)

// apiPrefix matches the path of the default API_BASE_URL
const apiPrefix = "/api"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running API fake")
	}
	log.Info().Msg("API fake stopped")
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
	displayAppname("api fake")

	if c.GetEnv() == "PROD" {
		return errors.New("the API fake must not run with ENV=PROD")
	}

	api := apifake.New(c.GetFakeAPISecret(), c.GetFakeAPITokenTTL())
	if err := api.SeedDemoUsers(); err != nil {
		return fmt.Errorf("seeding demo users: %w", err)
	}
	log.Info().
		Str("admin", "admin@institut.test").
		Str("student", "student@institut.test").
		Msg("demo users seeded")

	mux := http.NewServeMux()
	mux.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, api))

	srv := &http.Server{Addr: c.GetFakeAPIPort(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("prefix", apiPrefix).Msg("API fake listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("server.ListenAndServe %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
