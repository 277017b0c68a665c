package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/preprocessing"
	gmm "github.com/YuminosukeSato/scimix/sklearn/mixture"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// gmmOutput is the JSON document written by the gmm command.
type gmmOutput struct {
	Selection *gmm.Selection `json:"selection,omitempty"`
	Model     *gmm.Result    `json:"model"`
	Summary   *gmm.Summary   `json:"summary"`
}

func newGMMCmd(a *app) *cobra.Command {
	var (
		k          int
		criterion  string
		minK       int
		maxK       int
		covariance string
		maxIter    int
		seed       int64
		scale      string
		plotPath   string
	)

	cmd := &cobra.Command{
		Use:   "gmm",
		Short: "Cluster the pooled source and target rows with a Bayesian Gaussian mixture",
		Long: `gmm pools the source rows followed by the target rows and fits a Gaussian
mixture with conjugate priors by MAP expectation-maximisation.

With --criterion none a single model with --k components is fitted. With aic
or bic every k in [--min-k, --max-k] is fitted and the model with the lowest
score is reported; --plot then writes the score curve to an image file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := &a.cfg.GMM
			flags := cmd.Flags()
			if flags.Changed("k") {
				g.K = k
			}
			if flags.Changed("criterion") {
				g.Criterion = criterion
			}
			if flags.Changed("min-k") {
				g.MinK = minK
			}
			if flags.Changed("max-k") {
				g.MaxK = maxK
			}
			if flags.Changed("covariance") {
				g.CovarianceType = covariance
			}
			if flags.Changed("max-iter") {
				g.MaxIter = maxIter
			}
			if flags.Changed("seed") {
				g.RandomState = seed
			}
			if flags.Changed("scale") {
				g.Scale = scale
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if plotPath != "" && g.Criterion == gmm.CriterionNone {
				return errors.NewValidationError("plot", "needs --criterion aic or bic", plotPath)
			}

			ds, err := a.dataset()
			if err != nil {
				return err
			}
			names, pooled := ds.Pooled()

			var X mat.Matrix = pooled
			scaler, err := preprocessing.NewScaler(g.Scale)
			if err != nil {
				return err
			}
			if scaler != nil {
				if X, err = scaler.FitTransform(pooled); err != nil {
					return err
				}
			}

			ctx, job := a.tracker.Start(cmd.Context())
			defer job.Release()

			opts := append(a.cfg.GMMOptions(),
				gmm.WithLogger(a.logger.With(log.JobIDKey, job.ID)),
				gmm.WithRecorder(a.recorder),
			)

			out := &gmmOutput{}
			var best *gmm.BayesianGaussianMixture
			if g.Criterion == gmm.CriterionNone {
				best = gmm.NewBayesianGaussianMixture(append(opts, gmm.WithNComponents(g.K))...)
				if err := best.FitContext(ctx, X); err != nil {
					return err
				}
			} else {
				sel, err := gmm.SelectModel(ctx, X, g.Criterion, g.MinK, g.MaxK, opts...)
				if err != nil {
					return err
				}
				out.Selection, best = sel, sel.Best
				if plotPath != "" {
					if err := writeCriterionPlot(sel, plotPath); err != nil {
						return err
					}
				}
			}

			if out.Model, err = best.Result(); err != nil {
				return err
			}
			if out.Summary, err = best.Summary(names); err != nil {
				return err
			}
			return a.render(out, func(w io.Writer) { writeGMM(w, out) })
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&k, "k", 0, "number of components with --criterion none (overrides gmm.k)")
	flags.StringVar(&criterion, "criterion", "", "model selection criterion: none, aic or bic")
	flags.IntVar(&minK, "min-k", 0, "smallest k tried by the model selection")
	flags.IntVar(&maxK, "max-k", 0, "largest k tried by the model selection")
	flags.StringVar(&covariance, "covariance", "", "covariance type: diag or full")
	flags.IntVar(&maxIter, "max-iter", 0, "maximum EM iterations")
	flags.Int64Var(&seed, "seed", -1, "random seed; negative seeds from the clock")
	flags.StringVar(&scale, "scale", "", "scale the pooled rows before fitting: none, standard or minmax")
	flags.StringVar(&plotPath, "plot", "", "write the criterion curve to this image file (png, svg or pdf)")
	return cmd
}

func writeGMM(w io.Writer, out *gmmOutput) {
	m, s := out.Model, out.Summary

	if sel := out.Selection; sel != nil {
		fmt.Fprintln(w, "K\tLOG_LIKELIHOOD\tBIC\tAIC\tCONVERGED\tITERATIONS\t")
		for _, c := range sel.Candidates {
			mark := ""
			if c.K == sel.BestK {
				mark = "*"
			}
			fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%t\t%d\t%s\n",
				c.K, c.LogLikelihood, c.BIC, c.AIC, c.Converged, c.Iterations, mark)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "k: %d\tcovariance: %s\tlog_likelihood: %.4f\tbic: %.4f\taic: %.4f\tconverged: %t\titerations: %d\n",
		m.K, m.CovarianceType, m.LogLikelihood, m.BIC, m.AIC, m.Converged, m.Iterations)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CLUSTER\tWEIGHT\tAVG_RESPONSIBILITY\tMEAN")
	for pos, c := range s.ColumnOrder {
		comp := m.Components[c]
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%s\n", pos+1, comp.Weight, s.Average[c],
			join(comp.Mean, func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SAMPLE\tCLUSTER\tMAX_PROB")
	for i, name := range s.Names {
		fmt.Fprintf(w, "%s\t%d\t%.4f\n", name, s.DisplayLabels[i], s.MaxProb[i])
	}
}
