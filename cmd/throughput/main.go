// Package main runs a throughput driver against the disruptor: N producer
// goroutines publish a fixed number of events through a pipeline of
// chained consumer stages, then the driver reports elapsed time and
// per-stage batch statistics.
//
// The driver talks to the engine only through the public surface every
// collaborator uses: a producer handle to claim-and-publish, and handlers
// registered with the executor.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/rishav/disruptor/internal/config"
	"github.com/rishav/disruptor/internal/disruptor"
)

// Event is the payload carried through the ring during a driver run.
type Event struct {
	Sequence int64
	Producer int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		capacity   int64
		strategy   string
		producers  int
		stages     int
		events     int64
	)

	cmd := &cobra.Command{
		Use:          "throughput",
		Short:        "Drive events through the disruptor and report throughput",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			flags := cmd.Flags()
			if flags.Changed("capacity") {
				cfg.Capacity = capacity
			}
			if flags.Changed("strategy") {
				cfg.WaitStrategy = strategy
			}
			if flags.Changed("producers") {
				cfg.Producers = producers
			}
			if flags.Changed("stages") {
				cfg.Stages = stages
			}
			if flags.Changed("events") {
				cfg.Events = events
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			return run(cfg, log)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML driver config")
	cmd.Flags().Int64Var(&capacity, "capacity", config.Default().Capacity, "ring capacity (power of two)")
	cmd.Flags().StringVar(&strategy, "strategy", config.Default().WaitStrategy, "wait strategy: busy-spin|yielding|sleeping|blocking")
	cmd.Flags().IntVar(&producers, "producers", config.Default().Producers, "concurrent producer goroutines")
	cmd.Flags().IntVar(&stages, "stages", config.Default().Stages, "chained consumer stages")
	cmd.Flags().Int64Var(&events, "events", config.Default().Events, "events to publish")
	return cmd
}

func run(cfg config.Driver, log *slog.Logger) error {
	kind, err := cfg.WaitKind()
	if err != nil {
		return err
	}

	ring, err := disruptor.NewRingBuffer[Event](disruptor.Config{
		Capacity:     cfg.Capacity,
		WaitStrategy: kind,
		Producers:    cfg.ProducerMode(),
	})
	if err != nil {
		return err
	}

	exec := disruptor.NewExecutor(ring, disruptor.WithLogger[Event](log))

	// Stage i depends on stage i-1; only the final stage counts events as
	// consumed.
	var consumed atomic.Int64
	var processors []*disruptor.EventProcessor[Event]
	for i := 0; i < cfg.Stages; i++ {
		name := fmt.Sprintf("stage-%d", i)
		final := i == cfg.Stages-1
		handler := disruptor.EventHandlerFunc[Event](func(event *Event, sequence int64, endOfBatch bool) {
			if final {
				consumed.Add(1)
			}
		})

		var deps []*disruptor.EventProcessor[Event]
		if i > 0 {
			deps = append(deps, processors[i-1])
		}
		processors = append(processors, exec.Register(name, handler, deps...))
	}

	log.Info("driver starting",
		"capacity", cfg.Capacity,
		"strategy", cfg.WaitStrategy,
		"producers", cfg.Producers,
		"stages", cfg.Stages,
		"events", cfg.Events)

	exec.Start()
	start := time.Now()

	var wg sync.WaitGroup
	perProducer := cfg.Events / int64(cfg.Producers)
	for p := 0; p < cfg.Producers; p++ {
		count := perProducer
		if p == cfg.Producers-1 {
			count += cfg.Events % int64(cfg.Producers)
		}
		wg.Add(1)
		go func(id int, count int64) {
			defer wg.Done()
			producer := disruptor.NewProducer(ring)
			for i := int64(0); i < count; i++ {
				_, err := producer.Publish(func(slot *Event) {
					slot.Producer = id
					slot.Sequence = i
				})
				if err != nil {
					log.Error("publish failed", "producer", id, "error", err)
					return
				}
			}
		}(p, count)
	}
	wg.Wait()

	// Producers are done; wait for the pipeline to drain.
	final := processors[len(processors)-1]
	for final.Sequence().Get() < cfg.Events-1 {
		if len(exec.Faults()) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	elapsed := time.Since(start)
	exec.Stop()

	for _, p := range processors {
		stats := p.Stats()
		log.Info("stage drained",
			"stage", p.Name(),
			"batches", stats.Batches,
			"max_batch", stats.MaxBatchSize)
	}

	rate := float64(consumed.Load()) / elapsed.Seconds()
	log.Info("driver finished",
		"consumed", consumed.Load(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"events_per_sec", int64(rate))
	return nil
}
