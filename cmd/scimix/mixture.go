package main

import (
	"context"
	"fmt"
	"io"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/mixture"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/spf13/cobra"
)

func newMixtureCmd(a *app) *cobra.Command {
	var (
		targetName   string
		all          bool
		preset       string
		slots        int
		cycles       int
		aggregate    bool
		printZeroes  bool
		importance   bool
		pool         string
		permutations int
		seed         int64
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "mixture",
		Short: "Estimate targets as convex mixtures of the sources",
		Long: `mixture distributes a fixed number of slots over the sources and searches
for the assignment whose averaged profile is closest to the target.

With --all every target is solved concurrently and the weights are reported as
one matrix with per-column averages. Otherwise each selected target is solved
in turn and, with --importance, the permutation importance of the used sources
is reported next to their weights.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if preset != "" {
				if err := cfg.ApplyPreset(preset); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("slots") {
				cfg.Mixture.Slots = slots
			}
			if flags.Changed("cycles") {
				cfg.Mixture.Cycles = cycles
			}
			if flags.Changed("aggregate") {
				cfg.Mixture.Aggregate = aggregate
			}
			if flags.Changed("print-zeroes") {
				cfg.Mixture.PrintZeroes = printZeroes
			}
			if flags.Changed("importance") {
				cfg.Mixture.Importance.Enabled = importance
			}
			if flags.Changed("importance-pool") {
				cfg.Mixture.Importance.Pool = pool
			}
			if flags.Changed("permutations") {
				cfg.Mixture.Importance.Permutations = permutations
			}
			if flags.Changed("seed") {
				cfg.Mixture.RandomState = seed
			}
			if flags.Changed("workers") {
				cfg.Mixture.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ds, err := a.dataset()
			if err != nil {
				return err
			}

			ctx, job := a.tracker.Start(cmd.Context())
			defer job.Release()

			solver := mixture.NewSolver(append(cfg.MixtureOptions(),
				mixture.WithLogger(a.logger.With(log.JobIDKey, job.ID)),
				mixture.WithRecorder(a.recorder),
			)...)

			if all {
				batch, err := solver.SolveAll(ctx, ds.Target(), ds.Source(), mixture.BatchOptions{
					Aggregate: cfg.Mixture.Aggregate,
					Workers:   cfg.Mixture.Workers,
				})
				if err != nil {
					return err
				}
				return a.render(batch, func(w io.Writer) { writeBatch(w, batch) })
			}

			targets, err := a.targets(ds, targetName)
			if err != nil {
				return err
			}
			view := mixture.ViewOptions{
				Aggregate:   cfg.Mixture.Aggregate,
				PrintZeroes: cfg.Mixture.PrintZeroes,
			}
			results := make([]*mixture.Result, 0, len(targets))
			for _, t := range targets {
				res, err := solveOne(ctx, a, solver, t, ds.Source(), view)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return a.render(results, func(w io.Writer) { writeMixtures(w, results) })
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&targetName, "target-name", "", "solve only the target with this name")
	flags.BoolVar(&all, "all", false, "solve every target and report the weight matrix")
	flags.StringVar(&preset, "preset", "", "apply a speed preset: fast, balanced or thorough")
	flags.IntVar(&slots, "slots", 0, "number of slots (overrides mixture.slots)")
	flags.IntVar(&cycles, "cycles", 0, "cycles multiplier (overrides mixture.cycles)")
	flags.BoolVar(&aggregate, "aggregate", false, "sum weights of sources sharing a name prefix before ':'")
	flags.BoolVar(&printZeroes, "print-zeroes", false, "list sources with zero weight")
	flags.BoolVar(&importance, "importance", false, "compute the permutation importance of the sources")
	flags.StringVar(&pool, "importance-pool", "", "candidate pool of the importance reruns: all or used (overrides mixture.importance.pool)")
	flags.IntVar(&permutations, "permutations", 0, "permutations per source (overrides mixture.importance.permutations)")
	flags.Int64Var(&seed, "seed", -1, "random seed; negative seeds from the clock")
	flags.IntVar(&workers, "workers", 0, "concurrent solves with --all (0: one per CPU)")
	return cmd
}

// solveOne solves target and, when enabled, evaluates the importance of the
// sources against the same solution.
func solveOne(ctx context.Context, a *app, solver *mixture.Solver, target model.Row, sources []model.Row, view mixture.ViewOptions) (*mixture.Result, error) {
	cfg := a.cfg.Mixture
	rng := mixture.NewRand(cfg.RandomState)

	sol, err := solver.Solve(ctx, rng, target, sources)
	if err != nil {
		return nil, err
	}

	var report *mixture.ImportanceReport
	if cfg.Importance.Enabled {
		report, err = solver.Importance(ctx, rng, target, sources, sol, a.cfg.ImportanceOptions(sol)...)
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return mixture.NewResult(names, sol, report, view), nil
}

func writeMixtures(w io.Writer, results []*mixture.Result) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "target: %s\tdistance: %.6f\trmse: %.6f\n", res.Target, res.Distance, res.RMSE)
		if res.HasImportance {
			fmt.Fprintln(w, "SOURCE\tWEIGHT\tIMPORTANCE")
		} else {
			fmt.Fprintln(w, "SOURCE\tWEIGHT")
		}
		for _, p := range res.Pairs {
			if !res.HasImportance {
				fmt.Fprintf(w, "%s\t%.2f%%\n", p.Name, 100*p.Weight)
				continue
			}
			delta := "-"
			if p.Delta != nil {
				delta = fmt.Sprintf("%.6f", *p.Delta)
			}
			fmt.Fprintf(w, "%s\t%.2f%%\t%s\n", p.Name, 100*p.Weight, delta)
		}
	}
}

func writeBatch(w io.Writer, batch *mixture.BatchResult) {
	fmt.Fprint(w, "TARGET\tDISTANCE")
	for _, c := range batch.ColumnOrder {
		fmt.Fprintf(w, "\t%s", batch.Columns[c])
	}
	fmt.Fprintln(w)

	for t, name := range batch.Targets {
		fmt.Fprintf(w, "%s\t%.6f", name, batch.Distances[t])
		for _, c := range batch.ColumnOrder {
			fmt.Fprintf(w, "\t%.2f%%", 100*batch.Matrix[t][c])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Average\t%.6f", batch.AverageDistance)
	for _, c := range batch.ColumnOrder {
		fmt.Fprintf(w, "\t%.2f%%", 100*batch.Average[c])
	}
	fmt.Fprintln(w)
}
