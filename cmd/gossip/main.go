package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vertex-lab/gossip/pkg/diffusion"
	"github.com/vertex-lab/gossip/pkg/metrics"
	"github.com/vertex-lab/gossip/pkg/report"
	"github.com/vertex-lab/gossip/pkg/spreaders"
	"github.com/vertex-lab/gossip/pkg/utils/logger"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	defer config.CloseLogs()

	PrintTitle(config.Log)
	config.Print()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go HandleSignals(cancel, config.Log)

	registry := metrics.NewRegistry()
	if config.MetricsAddr != "" {
		go ServeMetrics(ctx, config.MetricsAddr, registry, config.Log)
	}

	if err := Run(ctx, config, registry); err != nil {
		config.Log.Error("%v", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		config.CloseLogs()
		os.Exit(1)
	}

	config.Log.Info("Exiting")
	config.Log.Info("------------------------------------------------------")
}

// Run() loads the graph, simulates the spread from a random seed, and ranks
// the top spreaders among the sampled candidates.
func Run(ctx context.Context, config *Config, registry *metrics.Registry) error {
	G, labels, err := LoadGraph(ctx, config, registry)
	if err != nil {
		return err
	}

	fmt.Printf("\nGraph size: %d nodes\n", G.Size(ctx))
	rng := rand.New(rand.NewSource(config.Seed))

	start := time.Now()
	seed, log, err := diffusion.SimulateFromRandom(ctx, G, config.MaxSteps, rng)
	registry.RecordSimulation(log.Steps(), log.Reach(), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to simulate: %w", err)
	}

	report.PrintSpread(os.Stdout, seed, log)
	if config.SpreadCSV != "" {
		if err := report.WriteSpreadCSVFile(config.SpreadCSV, log); err != nil {
			return err
		}
		config.Log.Info("spread log written to %s", config.SpreadCSV)
	}

	ranker := spreaders.Ranker{
		Workers: config.Workers,
		Log:     config.Log,
		Metrics: registry,
	}

	results, err := ranker.Rank(ctx, G, config.NumTrials, config.MaxSteps, rng)
	if err != nil {
		return fmt.Errorf("failed to rank the spreaders: %w", err)
	}

	fmt.Println()
	report.PrintTopSpreaders(os.Stdout, spreaders.Top(results, config.TopN), labels)
	return nil
}

// ServeMetrics() exposes the registry on addr until the context is cancelled.
func ServeMetrics(ctx context.Context, addr string, registry *metrics.Registry, l *logger.Aggregate) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	l.Info("serving metrics on %s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("metrics server: %v", err)
	}
}

// HandleSignals() listens for OS signals and triggers context cancellation.
func HandleSignals(cancel context.CancelFunc, l *logger.Aggregate) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	fmt.Printf("\nSignal received. Shutting down...")
	l.Info("Signal received. Shutting down...")
	cancel()
}

// PrintTitle() prints a title.
func PrintTitle(l *logger.Aggregate) {
	fmt.Println("---------------------------")
	fmt.Println("Gossip simulator is running")
	fmt.Println("---------------------------")

	l.Info("------------------------------------------------------")
	l.Info("Gossip simulator is starting up")
}
