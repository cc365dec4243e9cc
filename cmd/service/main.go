package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/extracker/extracker/internal"
	"github.com/extracker/extracker/internal/config"
	"github.com/extracker/extracker/internal/logging"
	"github.com/extracker/extracker/pkg"

	log "github.com/sirupsen/logrus"
)

const defaultMongoURI = "mongodb://localhost:27017"

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "extracker-service",
	})

	// the deployment environment overrides the configured port
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatalf("invalid PORT env var value [%s]: %s", portStr, err)
		}
		cfg.Port = port
	}

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	mongoURI := os.Getenv("EXTRACKER_MONGO_URI")
	if mongoURI == "" {
		log.Errorf("mongo uri not set, use EXTRACKER_MONGO_URI env var to set it, falling back to [%s]", defaultMongoURI)
		mongoURI = defaultMongoURI
	}

	redisPassword := os.Getenv("EXTRACKER_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use EXTRACKER_REDIS_PASS")
	}

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	staticDirFound, err := pkg.PathExists(cfg.StaticFilesPath, true)
	if err != nil {
		log.Fatalf("check static files dir: %s", err)
	}
	if !staticDirFound {
		log.Errorf("static files dir not found: %s", cfg.StaticFilesPath)
	}
	landingPageFound, err := pkg.PathExists(cfg.LandingPagePath, false)
	if err != nil {
		log.Fatalf("check landing page: %s", err)
	}
	if !landingPageFound {
		log.Errorf("landing page not found: %s", cfg.LandingPagePath)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			MongoURI:                mongoURI,
			RedisPassword:           redisPassword,
			VersionInfo:             versionInfo,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
