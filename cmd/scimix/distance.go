package main

import (
	"fmt"
	"io"
	"time"

	"github.com/YuminosukeSato/scimix/distance"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
	"github.com/spf13/cobra"
)

func newDistanceCmd(a *app) *cobra.Command {
	var (
		targetName string
		topN       int
		aggregate  bool
		metric     string
	)

	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Rank source rows by distance to each target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("top") {
				a.cfg.Distance.TopN = topN
			}
			if flags.Changed("aggregate") {
				a.cfg.Distance.Aggregate = aggregate
			}
			if flags.Changed("metric") {
				a.cfg.Distance.Metric = metric
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ds, err := a.dataset()
			if err != nil {
				return err
			}
			targets, err := a.targets(ds, targetName)
			if err != nil {
				return err
			}

			ranker := distance.NewRanker(append(a.cfg.DistanceOptions(), distance.WithLogger(a.logger))...)
			results := make([]*distance.Result, 0, len(targets))
			for _, t := range targets {
				start := time.Now()
				res, err := ranker.Rank(t, ds.Source())
				if err != nil {
					return err
				}
				a.recorder.ObserveDuration(telemetry.EngineDistance, time.Since(start))
				results = append(results, res)
			}

			return a.render(results, func(w io.Writer) {
				fmt.Fprintln(w, "TARGET\tRANK\tSOURCE\tDISTANCE")
				for _, res := range results {
					for i, r := range res.Ranked {
						fmt.Fprintf(w, "%s\t%d\t%s\t%.6f\n", res.Target, i+1, r.Name, r.Distance)
					}
				}
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&targetName, "target-name", "", "rank only the target with this name")
	flags.IntVar(&topN, "top", 0, "keep the n closest sources (overrides distance.top_n)")
	flags.BoolVar(&aggregate, "aggregate", false, "merge sources sharing a name prefix before ':' by their minimum distance")
	flags.StringVar(&metric, "metric", "", "distance metric: euclidean or cosine")
	return cmd
}
