package integration_testing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/extracker/extracker/internal"
	"github.com/extracker/extracker/internal/config"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	serverPort = 9000
	serverHost = "localhost"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	MongoClient *mongo.Client
	dockerPool  *dockertest.Pool
	server      *internal.Server
	teardown    []func()
}

func newSuite(ctx context.Context) (_ *Suite) {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup redis: %s", err.Error())
	}

	mongoURI, err := suite.mongoSetup(ctx)
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup mongo: %s", err)
	}

	cfg := getTestConfig(redisPort)
	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			MongoURI:                mongoURI,
			RedisPassword:           "",
			VersionInfo:             "test-version-info",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		suite.cleanup()
		log.Fatalf("new server: %s", err)
	}

	suite.server.Serve(ctx, cfg.Host, cfg.Port)

	return suite
}

func (s *Suite) cleanup() {
	if s.MongoClient != nil {
		if err := s.MongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("disconnect mongo client: %s", err)
		}
	}
	for _, teardown := range s.teardown {
		teardown()
	}
	if s.server != nil {
		s.server.GracefulShutdown()
	}
}

func getTestConfig(redisPort string) *config.Config {
	return &config.Config{
		Environment:                      "testing",
		Host:                             serverHost,
		Port:                             serverPort,
		LogToStdout:                      true,
		LogLevel:                         "trace",
		MongoDBName:                      "extracker_test",
		RedisHost:                        "localhost",
		RedisPort:                        redisPort,
		CreateUserRateLimitAllowedPerMin: 1000,
		PrometheusMetricsHost:            "localhost",
		PrometheusMetricsPort:            "2112",
		StaticFilesPath:                  "../public",
		LandingPagePath:                  "../views/index.html",
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	return redisPort, nil
}

func (s *Suite) mongoSetup(ctx context.Context) (string, error) {
	mongoResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run mongo: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		mongoResource.Close()
	})

	mongoURI := fmt.Sprintf("mongodb://localhost:%s", mongoResource.GetPort("27017/tcp"))

	// the container takes a moment to start accepting connections
	if err := s.dockerPool.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		client, err := mongo.Connect(pingCtx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			return err
		}
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			return err
		}
		s.MongoClient = client
		return nil
	}); err != nil {
		return "", fmt.Errorf("connect to mongo: %s", err)
	}

	return mongoURI, nil
}
