package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mybus/backend-go/internal/archive"
	"github.com/mybus/backend-go/internal/config"
	"github.com/mybus/backend-go/internal/handler"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/mybus/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

var (
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
	lambdaStart     = lambda.Start
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		log.Info().Str("env", cfg.Environment).Msg("Environment")
		log.Debug().Msg("Debug logs enabled")

		stationsHandler = newStationsHandler(context.Background(), cfg)
	})
}

func newStationsHandler(ctx context.Context, cfg *config.Config) *handler.StationsHandler {
	httpClient := client.New(client.Options{
		BaseURL: cfg.TransitBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	var recorder transit.FailureRecorder
	if cfg.ArchiveBucket != "" {
		s3Client, err := archive.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create S3 client, decode failures will not be archived")
		} else {
			recorder = archive.NewS3DecodeFailureArchive(s3Client, cfg.ArchiveBucket)
		}
	}

	return handler.NewStationsHandler(
		transit.NewFetcher(httpClient, cfg.NearbyPath),
		transit.NewDecoder(),
		recorder,
	)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Info().Msg("Handling Lambda request")
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	lambdaStart(handleRequest)
}
