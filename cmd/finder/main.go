package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/PlacesFinder/internal/app"
	"github.com/router-for-me/PlacesFinder/internal/config"
	"github.com/router-for-me/PlacesFinder/internal/logging"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config and logging, and serves until ctx is done.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("finder", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	envPath := fs.String("env-file", ".env", "optional dotenv file loaded before config")
	port := fs.Int("port", 0, "server port (overrides config and PORT)")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errEnv := config.LoadDotEnv(*envPath); errEnv != nil {
		return errEnv
	}

	appCfg, errLoad := loadConfig(*cfgPath)
	if errLoad != nil {
		return errLoad
	}
	if *port != 0 {
		if errValidate := validatePort(*port); errValidate != nil {
			return errValidate
		}
		appCfg.Port = *port
	}

	closer, errLogging := logging.Setup(appCfg.Logging)
	if errLogging != nil {
		return errLogging
	}
	defer func() {
		if errClose := closer.Close(); errClose != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", errClose)
		}
	}()
	if appCfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Infof("starting finder with config=%s", appCfg.ConfigPath)
	return app.RunServer(ctx, appCfg)
}

// loadConfig reads the -config file when given, otherwise the file named by CONFIG_PATH.
func loadConfig(path string) (config.AppConfig, error) {
	if strings.TrimSpace(path) != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
