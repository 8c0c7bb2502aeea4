// wxuplink forwards weather-station observations to InfluxDB.
//
// It subscribes to the loop and archive topics the station software
// publishes on, and runs one delivery worker per configured InfluxDB
// destination: encoding records as line protocol and posting them with
// bounded retries, staleness checks, and backlog bounding.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/stationside/wxuplink/internal/api"
	"github.com/stationside/wxuplink/internal/deadletter"
	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/logging"
	"github.com/stationside/wxuplink/internal/infrastructure/metrics"
	"github.com/stationside/wxuplink/internal/infrastructure/mqtt"
	"github.com/stationside/wxuplink/internal/station"
	"github.com/stationside/wxuplink/internal/uplink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting wxuplink", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Dead-letter spool (optional)
	var spool *deadletter.Store
	if cfg.DeadLetter.Enabled {
		spool, err = deadletter.Open(cfg.DeadLetter)
		if err != nil {
			return fmt.Errorf("opening dead-letter spool: %w", err)
		}
		defer func() {
			if closeErr := spool.Close(); closeErr != nil {
				log.Error("closing dead-letter spool", "error", closeErr)
			}
		}()
		log.Info("dead-letter spool open", "path", cfg.DeadLetter.Path)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metricSet := metrics.New(registry)

	// Delivery workers, one per valid enabled destination. A destination
	// that fails validation is disabled; the rest keep running.
	dispatcher := station.NewDispatcher()
	var workers []*uplink.Worker
	for i := range cfg.Destinations {
		dest := &cfg.Destinations[i]
		if !dest.Enabled {
			continue
		}
		if err := dest.Validate(); err != nil {
			log.Error("destination disabled", "error", err)
			continue
		}

		var poster uplink.Poster
		if dest.Client == "influx" {
			poster = uplink.NewClientPoster(dest)
		} else {
			poster = uplink.NewHTTPPoster(dest)
		}

		worker, err := uplink.NewWorker(uplink.Deps{
			Config:  dest,
			Poster:  poster,
			Logger:  log,
			Metrics: metricSet.ForDestination(dest.Name),
			Spool:   spoolOrNil(spool),
		})
		if err != nil {
			poster.Close()
			log.Error("destination disabled", "destination", dest.Name, "error", err)
			continue
		}
		defer poster.Close()

		worker.BindTo(dispatcher)
		go worker.Run()
		workers = append(workers, worker)
		log.Info("destination started",
			"destination", dest.Name,
			"server_url", dest.ServerURL,
			"binding", dest.Binding,
		)
	}
	if len(workers) == 0 {
		return fmt.Errorf("no valid destinations configured")
	}

	// Station feed
	feed, err := mqtt.Connect(cfg.Source)
	if err != nil {
		return fmt.Errorf("connecting to station feed: %w", err)
	}
	feed.SetLogger(log)
	defer feed.Close()
	log.Info("station feed connected",
		"host", cfg.Source.Broker.Host,
		"port", cfg.Source.Broker.Port,
	)

	if err := subscribeFeed(feed, cfg.Source, dispatcher, log); err != nil {
		return err
	}

	// Status server
	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Workers:  workers,
			Spool:    spool,
			Gatherer: registry,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating status server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting status server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("closing status server", "error", closeErr)
			}
		}()
	}

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutting down")

	// Cooperative shutdown: sentinel each worker, then wait for the
	// loops to drain and exit.
	for _, worker := range workers {
		worker.Stop()
	}
	for _, worker := range workers {
		<-worker.Done()
	}

	log.Info("shutdown complete")
	return nil
}

// subscribeFeed wires the MQTT topics into the station dispatcher.
func subscribeFeed(feed *mqtt.Client, src config.SourceConfig, dispatcher *station.Dispatcher, log *logging.Logger) error {
	qos := byte(src.QoS)

	decode := func(kind station.EventKind) mqtt.MessageHandler {
		return func(topic string, payload []byte) error {
			rec, err := station.DecodeRecord(payload)
			if err != nil {
				return fmt.Errorf("decoding %s payload from %s: %w", kind, topic, err)
			}
			dispatcher.Dispatch(station.Event{Kind: kind, Record: rec})
			return nil
		}
	}

	if src.LoopTopic != "" {
		if err := feed.Subscribe(src.LoopTopic, qos, decode(station.NewLoopPacket)); err != nil {
			return fmt.Errorf("subscribing to loop topic: %w", err)
		}
		log.Info("subscribed", "topic", src.LoopTopic, "stream", "loop")
	}
	if src.ArchiveTopic != "" {
		if err := feed.Subscribe(src.ArchiveTopic, qos, decode(station.NewArchiveRecord)); err != nil {
			return fmt.Errorf("subscribing to archive topic: %w", err)
		}
		log.Info("subscribed", "topic", src.ArchiveTopic, "stream", "archive")
	}

	return nil
}

// spoolOrNil avoids handing the workers a typed nil interface.
func spoolOrNil(s *deadletter.Store) uplink.Spool {
	if s == nil {
		return nil
	}
	return s
}

// getConfigPath returns the config path from args or the default.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if v := os.Getenv("WXUPLINK_CONFIG"); v != "" {
		return v
	}
	return defaultConfigPath
}
