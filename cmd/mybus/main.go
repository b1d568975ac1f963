package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mybus/backend-go/internal/archive"
	"github.com/mybus/backend-go/internal/config"
	"github.com/mybus/backend-go/internal/location"
	"github.com/mybus/backend-go/internal/render"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/mybus/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one screen activation and returns the process exit code:
// 0 for a station list or "no stations", 1 for a pipeline error, 2 for
// usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("mybus", flag.ContinueOnError)
	fset.SetOutput(stderr)
	configPath := fset.String("config", "", "path to a YAML config file")
	lat := fset.Float64("lat", 0, "latitude in decimal degrees")
	lon := fset.Float64("lon", 0, "longitude in decimal degrees")
	format := fset.String("format", "text", "output format: text or json")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	var opts []config.Option
	if *configPath != "" {
		fileOpts, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 2
		}
		opts = append(opts, fileOpts...)
	}
	opts = append(opts, config.EnvOptions()...)

	// Only flags that were actually given override the configured fix.
	latSet, lonSet := false, false
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			latSet = true
		case "lon":
			lonSet = true
		}
	})
	if latSet != lonSet {
		fmt.Fprintln(stderr, "-lat and -lon must be given together")
		return 2
	}
	if latSet {
		opts = append(opts, config.WithLocation(*lat, *lon))
	}

	cfg := config.New(opts...)
	cfg.InitializeLogging()

	result := newPipeline(ctx, cfg).Run(ctx)

	renderFn := render.Text
	if *format == "json" {
		renderFn = render.JSON
	}
	if err := renderFn(stdout, result); err != nil {
		log.Error().Err(err).Msg("Failed to render stations")
		return 1
	}

	if result.State == transit.StateReady || result.State == transit.StateNoStationsAvailable {
		return 0
	}
	return 1
}

func newPipeline(ctx context.Context, cfg *config.Config) *transit.Pipeline {
	httpClient := client.New(client.Options{
		BaseURL: cfg.TransitBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	opts := []transit.Option{
		transit.WithStateObserver(func(s transit.State) {
			log.Debug().Str("state", string(s)).Msg("Screen state")
		}),
	}
	if cfg.ArchiveBucket != "" {
		s3Client, err := archive.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create S3 client, decode failures will not be archived")
		} else {
			opts = append(opts, transit.WithFailureRecorder(archive.NewS3DecodeFailureArchive(s3Client, cfg.ArchiveBucket)))
		}
	}

	return transit.NewPipeline(
		location.NewStaticProvider(cfg.Location),
		transit.NewFetcher(httpClient, cfg.NearbyPath),
		transit.NewDecoder(),
		opts...,
	)
}
