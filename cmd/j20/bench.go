package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/j20-dev/j20/internal/config"
	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/observe"
	"github.com/j20-dev/j20/pkg/reactive"
	"github.com/j20-dev/j20/pkg/scheduler"
)

func benchCmd(g *globals) *cobra.Command {
	var (
		items  int
		rounds int
		seed   int64
		hold   bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic reactive graph and keyed list workload",
		Long: `Run a synthetic workload against the reactive runtime: a cell holding
a list of ids feeds a filtering derived value, a summing effect and a keyed
list whose rows each run an effect on their index. Every round shuffles the
ids, replaces a few and moves the filter threshold.

Metrics are served on metrics.addr when metrics.enabled is set in j20.yaml.
Spans are printed to stderr when tracing.exporter is stdout.

Examples:
  j20 bench
  j20 bench --items 5000 --rounds 50
  j20 bench --hold        # keep serving metrics until interrupted`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if cmd.Flags().Changed("items") {
				cfg.Bench.Items = items
			}
			if cmd.Flags().Changed("rounds") {
				cfg.Bench.Rounds = rounds
			}
			if cmd.Flags().Changed("seed") {
				cfg.Bench.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, g.logger, hold)
		},
	}

	cmd.Flags().IntVar(&items, "items", config.DefaultBenchItems, "Number of list items")
	cmd.Flags().IntVar(&rounds, "rounds", config.DefaultBenchRounds, "Number of rounds")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&hold, "hold", false, "Keep serving metrics after the workload until interrupted")

	return cmd
}

// benchReport summarizes one workload run.
type benchReport struct {
	Mode       string
	Items      int
	Rounds     int
	Elapsed    time.Duration
	List       list.Stats
	Flushes    uint64
	EffectRuns uint64
	RowEffects uint64
	Sum        int
	Graph      reactive.Stats
}

// benchObserver wires the optional exporters into the runtime.
type benchObserver struct {
	runtime   reactive.Observer
	list      list.Observer
	scheduler scheduler.Observer
	metrics   *observe.Metrics
}

func runBench(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *slog.Logger, hold bool) error {
	var obs benchObserver

	var metricsAddr string
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		obs.metrics = observe.NewMetrics(
			observe.WithRegistry(reg),
			observe.WithNamespace(cfg.Metrics.Namespace),
		)

		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Metrics.Addr, err)
		}
		metricsAddr = ln.Addr().String()
		srv := &http.Server{
			Handler:           observe.Handler(obs.metrics, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	var tracer *observe.Tracer
	if cfg.Tracing.Exporter == "stdout" {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", cfg.Tracing.TracerName),
				attribute.String("service.version", version),
			)),
		)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
		tracer = observe.NewTracer(
			observe.WithTracerProvider(tp),
			observe.WithTracerName(cfg.Tracing.TracerName),
			observe.WithAttributes(attribute.String("j20.mode", cfg.Runtime.Mode)),
		)
	}

	// Typed nils must not reach the fan-outs.
	if obs.metrics != nil && tracer != nil {
		obs.runtime = reactive.Observers(obs.metrics, tracer)
		obs.list = list.Observers(obs.metrics, tracer)
		obs.scheduler = scheduler.Observers(obs.metrics, tracer)
	} else if obs.metrics != nil {
		obs.runtime, obs.list, obs.scheduler = obs.metrics, obs.metrics, obs.metrics
	} else if tracer != nil {
		obs.runtime, obs.list, obs.scheduler = tracer, tracer, tracer
	}

	report, err := workload(ctx, cfg, logger, obs)
	if err != nil {
		return err
	}
	printBench(stdout, report, metricsAddr)

	if hold && metricsAddr != "" {
		info(stdout, "serving metrics on http://%s/metrics (Ctrl+C to stop)", metricsAddr)
		<-ctx.Done()
	}
	return nil
}

// benchHost counts host calls without building anything.
type benchHost struct {
	inserts, moves, removes int
}

func (h *benchHost) Insert(*list.Entry[int, *benchRow], *list.Entry[int, *benchRow]) { h.inserts++ }
func (h *benchHost) Move(*list.Entry[int, *benchRow], *list.Entry[int, *benchRow])   { h.moves++ }
func (h *benchHost) Remove(*list.Entry[int, *benchRow])                              { h.removes++ }

type benchRow struct {
	id       int
	position int
}

func workload(ctx context.Context, cfg *config.Config, logger *slog.Logger, obs benchObserver) (benchReport, error) {
	rc := cfg.RuntimeConfig(logger)
	rc.Scheduler = scheduler.New(scheduler.Config{Logger: logger, Observer: obs.scheduler})
	rc.Observer = obs.runtime
	rt := reactive.New(rc)

	n := cfg.Bench.Items
	rng := rand.New(rand.NewPCG(uint64(cfg.Bench.Seed), uint64(n)))
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	nextID := n

	report := benchReport{Mode: cfg.Runtime.Mode, Items: n, Rounds: cfg.Bench.Rounds}

	root := reactive.NewOwner(rt, nil)
	defer root.Dispose()

	source := reactive.NewCell(rt, ids, reactive.Named("ids"))
	threshold := reactive.NewCell(rt, 0, reactive.Named("threshold"))

	var (
		sumEffect *reactive.Effect
		rows      *list.List[int, *benchRow]
		host      = &benchHost{}
	)
	rt.RunWithOwner(root, func() {
		visible := reactive.NewDerived(rt, func() []int {
			floor := threshold.Get()
			out := make([]int, 0, len(source.Get()))
			for _, id := range source.Get() {
				if id%10 >= floor {
					out = append(out, id)
				}
			}
			return out
		}, reactive.Named("visible"))

		sum := reactive.NewDerived(rt, func() int {
			total := 0
			for _, id := range visible.Get() {
				total += id
			}
			return total
		}, reactive.Named("sum"))

		sumEffect = reactive.NewEffect(rt, func() reactive.Cleanup {
			report.Sum = sum.Get()
			return nil
		}, reactive.Named("sum"))

		rows = list.For(rt, visible.Get, list.Reconciler[int, *benchRow]{
			Render: func(id int, index *reactive.Cell[int]) *benchRow {
				row := &benchRow{id: id}
				reactive.NewEffect(rt, func() reactive.Cleanup {
					row.position = index.Get()
					report.RowEffects++
					return nil
				})
				return row
			},
			Host:     host,
			Observer: obs.list,
			Name:     "bench",
		})
	})
	settle(rt)

	start := time.Now()
	for round := 0; round < cfg.Bench.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		next := append([]int(nil), source.Peek()...)
		rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
		for k := 0; k < len(next)/50+1 && len(next) > 0; k++ {
			next[rng.IntN(len(next))] = nextID
			nextID++
		}

		rt.Batch(func() {
			source.Set(next)
			if round%10 == 9 {
				threshold.Update(func(v int) int { return (v + 1) % 3 })
			}
		})
		settle(rt)

		s := rows.LastStats()
		report.List.Created += s.Created
		report.List.Removed += s.Removed
		report.List.Moved += s.Moved
		report.List.Retained += s.Retained
		report.List.Duplicates += s.Duplicates

		if obs.metrics != nil {
			obs.metrics.RecordStats(rt.Stats())
		}
	}
	report.Elapsed = time.Since(start)
	report.Graph = rt.Stats()
	report.Flushes = report.Graph.Flushes
	report.EffectRuns = sumEffect.Runs()

	logger.Debug("bench finished",
		"rounds", report.Rounds,
		"elapsed", report.Elapsed,
		"inserts", host.inserts,
		"moves", host.moves,
		"removes", host.removes)
	return report, nil
}

// settle drains deferred work so every round observes a stable graph.
func settle(rt *reactive.Runtime) {
	if rt.Mode() == reactive.ModeDeferred {
		rt.Scheduler().Flush()
	}
}

func printBench(w io.Writer, r benchReport, metricsAddr string) {
	success(w, "%d rounds over %d items in %s (%s mode)", r.Rounds, r.Items, r.Elapsed.Round(time.Microsecond), r.Mode)
	if r.Rounds > 0 {
		info(w, "per round:  %s", (r.Elapsed / time.Duration(r.Rounds)).Round(time.Microsecond))
	}
	info(w, "list:       %s", r.List)
	info(w, "flushes:    %d", r.Flushes)
	info(w, "sum runs:   %d (sum %d)", r.EffectRuns, r.Sum)
	info(w, "row runs:   %d", r.RowEffects)
	info(w, "graph:      %d reactions, %d tracked cells, %d pending", r.Graph.Reactions, r.Graph.TrackedCells, r.Graph.PendingEffects)
	if metricsAddr != "" {
		info(w, "metrics:    http://%s/metrics", metricsAddr)
	}
}
