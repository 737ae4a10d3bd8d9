package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-user-service/authorizer"
	"github.com/jrsteele09/go-user-service/internal/config"
	"github.com/jrsteele09/go-user-service/internal/ratelimit"
	"github.com/jrsteele09/go-user-service/server"
	"github.com/jrsteele09/go-user-service/store"
	"github.com/jrsteele09/go-user-service/store/dynamostore"
	"github.com/jrsteele09/go-user-service/store/memstore"
	"github.com/jrsteele09/go-user-service/store/redisstore"
	"github.com/jrsteele09/go-user-service/users"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	c := config.New()
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	displayAppname(c.GetAppName())

	secret := c.GetTokenSecret()
	if secret == "" {
		return errors.New("TOKEN_SECRET must be set")
	}

	auth, err := authorizer.New(authorizer.Config{
		Secret:    []byte(secret),
		Audience:  c.GetTokenAudience(),
		Issuer:    c.GetTokenIssuer(),
		ClockSkew: c.GetClockSkew(),
	})
	if err != nil {
		return errors.Wrap(err, "creating authorizer")
	}

	userStore, redisClient, err := newStore(c)
	if err != nil {
		return errors.Wrap(err, "creating store")
	}

	userService, err := users.NewService(userStore)
	if err != nil {
		return errors.Wrap(err, "creating user service")
	}

	var serverOptions []server.Option
	if c.GetEnableRateLimiting() {
		if redisClient == nil {
			redisClient = newRedisClient(c)
		}
		limiter, err := ratelimit.New(redisClient, c.GetRateLimitWindow(), c.GetRateLimitMaxRequests())
		if err != nil {
			return errors.Wrap(err, "creating rate limiter")
		}
		serverOptions = append(serverOptions, server.WithRateLimiter(limiter))
	}

	srv, err := server.New(userService, auth, serverOptions...)
	if err != nil {
		return errors.Wrap(err, "creating server")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// newStore builds the configured store backend. The Redis client is returned
// as well so the rate limiter can share the connection.
func newStore(c config.Config) (store.Store, *redis.Client, error) {
	switch backend := c.GetStoreBackend(); backend {
	case config.StoreBackendMemory:
		log.Warn().Msg("memory store selected: state is process-local and not durable")
		return memstore.New(), nil, nil

	case config.StoreBackendRedis:
		redisClient := newRedisClient(c)
		redisStore, err := redisstore.New(redisClient, redisstore.WithKeyPrefix("user:"))
		if err != nil {
			return nil, nil, err
		}
		return redisStore, redisClient, nil

	case config.StoreBackendDynamoDB:
		dynamoClient, err := newDynamoClient(c)
		if err != nil {
			return nil, nil, err
		}
		dynamoStore, err := dynamostore.New(dynamoClient, c.GetDynamoTable())
		if err != nil {
			return nil, nil, err
		}
		return dynamoStore, nil, nil

	default:
		return nil, nil, errors.Errorf("unknown store backend %q", backend)
	}
}

func newRedisClient(c config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
	})
}

func newDynamoClient(c config.Config) (*dynamodb.Client, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.GetDynamoRegion()),
	}

	// A local endpoint (e.g. LocalStack) accepts any static credentials.
	if c.GetDynamoEndpoint() != "" {
		loadOptions = append(loadOptions,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint := c.GetDynamoEndpoint(); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
