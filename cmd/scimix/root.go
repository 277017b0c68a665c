package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/scimix/config"
	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/ingest"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	sourcePath string
	targetPath string
	configPath string
	format     string
	logLevel   string
	logFormat  string
	metrics    bool

	cfg      *config.Config
	registry *prometheus.Registry
	recorder telemetry.Recorder
	tracker  *model.JobTracker
	logger   log.Logger

	out    io.Writer
	errOut io.Writer
}

// execute runs the command line args and writes results to out and logs to
// errOut.
func execute(ctx context.Context, args []string, out, errOut io.Writer) (err error) {
	defer errors.Recover(&err, "scimix")

	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		out:     out,
		errOut:  errOut,
		tracker: model.NewJobTracker(),
	}

	root := &cobra.Command{
		Use:   "scimix",
		Short: "Distance ranking, mixture modelling and Gaussian mixture clustering of profiles",
		Long: `scimix reads two CSV tables of named profiles (name,v1,...,vD), a source
set and a target set, and either ranks sources by distance to each target,
estimates each target as a convex mixture of sources, or clusters the pooled
rows with a Bayesian Gaussian mixture.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.sourcePath, "source", "", "CSV file with the source rows")
	flags.StringVar(&a.targetPath, "target", "", "CSV file with the target rows")
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file (defaults are used when empty)")
	flags.StringVarP(&a.format, "format", "o", formatTable, "output format: table or json")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides the config)")
	flags.BoolVar(&a.metrics, "metrics", false, "print engine metrics in the Prometheus text format after the result")

	root.AddCommand(
		newDistanceCmd(a),
		newMixtureCmd(a),
		newGMMCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the configuration and wires logging and metrics.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	switch a.format {
	case formatTable, formatJSON:
	default:
		return errors.NewValidationError("format", "must be 'table' or 'json'", a.format)
	}

	if err := log.SetupLoggerTo(a.errOut, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	a.logger = log.GetLoggerWithName("cli").With(log.OperationKey, cmd.Name())

	a.registry = prometheus.NewRegistry()
	rec, err := telemetry.NewPrometheusRecorder(a.registry)
	if err != nil {
		return err
	}
	a.recorder = rec
	return nil
}

// dataset reads the source and target tables named by the flags.
func (a *app) dataset() (*model.Dataset, error) {
	if a.sourcePath == "" || a.targetPath == "" {
		return nil, errors.NewValidationError("source/target", "both --source and --target are required",
			[2]string{a.sourcePath, a.targetPath})
	}
	ds, err := ingest.LoadDataset(a.sourcePath, a.targetPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Dataset loaded",
		log.SamplesKey, len(ds.Source()),
		log.TargetsKey, len(ds.Target()),
		log.FeaturesKey, ds.Dim(),
	)
	return ds, nil
}

// targets returns the target named name, or every target when name is empty.
func (a *app) targets(ds *model.Dataset, name string) ([]model.Row, error) {
	if name == "" {
		return ds.Target(), nil
	}
	i, ok := ds.TargetIndex(name)
	if !ok {
		return nil, errors.NewValidationError("target-name", "no target with this name", name)
	}
	return ds.Target()[i : i+1], nil
}

// render writes v as indented JSON, or calls table with a tab writer.
func (a *app) render(v any, table func(w io.Writer)) error {
	if a.format == formatJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encode result")
		}
	} else {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		table(tw)
		if err := tw.Flush(); err != nil {
			return errors.Wrap(err, "write table")
		}
	}
	return a.dumpMetrics()
}

func (a *app) dumpMetrics() error {
	if !a.metrics {
		return nil
	}
	return telemetry.WriteText(a.out, a.registry)
}

// join formats values with verb, separated by single spaces.
func join(values []float64, verb func(float64) string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = verb(v)
	}
	return strings.Join(parts, " ")
}
