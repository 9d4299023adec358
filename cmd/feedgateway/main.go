package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"github.com/driftfeed/marketfeed/internal/bus"
	"github.com/driftfeed/marketfeed/internal/config"
	"github.com/driftfeed/marketfeed/internal/consumer"
	"github.com/driftfeed/marketfeed/internal/errors"
	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
	"github.com/driftfeed/marketfeed/internal/orderbook"
	"github.com/driftfeed/marketfeed/internal/strategy/arb"
	"github.com/driftfeed/marketfeed/internal/venue"
	"github.com/driftfeed/marketfeed/internal/venue/binance"
	"github.com/driftfeed/marketfeed/internal/venue/coinbase"
	"github.com/driftfeed/marketfeed/internal/venue/kraken"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	metricsInterval := flag.Duration("metrics-interval", 30*time.Second, "Interval between metrics log lines")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("feedgateway: missing -config")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("feedgateway: config load failed: %v", err)
	}

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiling.AppName,
			ServerAddress:   cfg.Profiling.ServerAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("feedgateway: pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := obs.NewStats()
	eventBus := bus.New(stats)

	logger := consumer.NewLogger()
	logger.SubscribeTo(eventBus)

	pipelines := make([]*venue.Pipeline, 0, len(cfg.Venues))

	for _, vc := range cfg.Venues {
		source := venueNameToSource(vc.Name)
		dialect, err := dialectFor(vc.Name)
		if err != nil {
			log.Fatalf("feedgateway: %v", err)
		}

		desc := venue.SubscriptionDescriptor{
			Host:     vc.Host,
			Port:     vc.Port,
			Symbols:  vc.Symbols,
			Channels: vc.Channels,
			Credentials: venue.Credentials{
				APIKey:     vc.APIKey,
				APISecret:  vc.APISecret,
				Passphrase: vc.Passphrase,
			},
		}
		pipelineCfg := venue.PipelineConfig{
			IOCore:     vc.IOCore,
			ParserCore: vc.ParserCore,
			RingSize:   vc.RingSize,
		}
		pipeline := venue.NewPipeline(dialect, desc, eventBus, stats, pipelineCfg)
		pipelines = append(pipelines, pipeline)

		if vc.Name == "coinbase" {
			fetcher := coinbase.NewSnapshotFetcher("https://api.exchange.coinbase.com")
			rec := orderbook.New(fetcher, stats)
			wireReconstructor(ctx, eventBus, rec, source)
		}
	}

	if cfg.Arb.Enabled {
		strat := arb.New(arb.Config{
			VenueA:  venueNameToSource(cfg.Arb.VenueA),
			VenueB:  venueNameToSource(cfg.Arb.VenueB),
			Symbol:  cfg.Arb.Symbol,
			FeeRate: cfg.Arb.FeeRate,
		}, noopRouter{})
		strat.SubscribeTo(eventBus)
	}

	eventBus.Freeze()

	for _, p := range pipelines {
		p.Start(ctx)
	}

	ticker := time.NewTicker(*metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("feedgateway: shutting down")
			for _, p := range pipelines {
				p.Stop()
			}
			logger.Flush()
			return
		case <-ticker.C:
			snap := stats.Snapshot()
			log.Printf("feedgateway: pushed=%d popped=%d dropped_full=%d parse_failed=%d gap_recoveries=%d handler_panics=%d",
				snap.Pushed, snap.Popped, snap.DroppedFull, snap.ParseFailed, snap.GapRecoveries, snap.HandlerPanics)
		}
	}
}

// dialectFor maps a configured venue name to its wire dialect. Adding a
// venue means adding one case here and one package under internal/venue.
func dialectFor(name string) (*venue.Dialect, error) {
	switch name {
	case "binance":
		return binance.New(), nil
	case "coinbase":
		return coinbase.New(), nil
	case "kraken":
		return kraken.New(), nil
	default:
		return nil, errors.New("feedgateway: unknown venue " + name)
	}
}

func venueNameToSource(name string) model.Source {
	switch name {
	case "binance":
		return model.SourceVenueB
	case "coinbase":
		return model.SourceVenueC
	case "kraken":
		return model.SourceVenueK
	default:
		return model.SourceUnknown
	}
}

// wireReconstructor subscribes rec to order-book events from source so
// the reconstructed book stays current; other venues' events are
// ignored so each reconstructor only tracks its own venue.
func wireReconstructor(ctx context.Context, b *bus.Bus, rec *orderbook.Reconstructor, source model.Source) {
	b.SubscribeOrderBookDelta(func(e model.OrderBookDelta) {
		if e.Source != source {
			return
		}
		rec.ApplyDelta(ctx, e.Symbol, e)
	})
	b.SubscribeOrderBookSnapshot(func(e model.OrderBookSnapshot) {
		if e.Source != source {
			return
		}
		rec.ApplySnapshot(ctx, e.Symbol, e)
	})
}

// noopRouter is the default ExecutionRouter when no external order
// routing collaborator is configured: it logs nothing and never sends
// an order, leaving the arb strategy wired end-to-end for observation.
type noopRouter struct{}

func (noopRouter) Submit(consumer.OrderIntent) error { return nil }
