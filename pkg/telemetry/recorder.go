// Package telemetry records engine metrics.
//
// Engines accept a Recorder through their options. The default is a no-op
// recorder; NewPrometheusRecorder exports the same events as Prometheus
// collectors registered with the supplied Registerer.
package telemetry

import (
	"io"
	"time"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Engine names used as the "engine" label.
const (
	EngineDistance   = "distance"
	EngineMixture    = "mixture"
	EngineImportance = "importance"
	EngineGMM        = "gmm"
)

// Recorder receives engine events.
type Recorder interface {
	// ObserveDuration records the wall time of one engine call.
	ObserveDuration(engine string, d time.Duration)
	// AddSweeps counts completed local-search sweeps.
	AddSweeps(n int)
	// AddAcceptedMoves counts accepted slot reassignments.
	AddAcceptedMoves(n int)
	// AddEMIterations counts EM iterations.
	AddEMIterations(n int)
	// ObserveFit counts finished GMM fits by convergence outcome.
	ObserveFit(converged bool)
	// IncSuperseded counts calls abandoned because a newer job started.
	IncSuperseded(engine string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDuration(string, time.Duration) {}
func (nopRecorder) AddSweeps(int)                         {}
func (nopRecorder) AddAcceptedMoves(int)                  {}
func (nopRecorder) AddEMIterations(int)                   {}
func (nopRecorder) ObserveFit(bool)                       {}
func (nopRecorder) IncSuperseded(string)                  {}

// Nop returns a Recorder that discards every event.
func Nop() Recorder { return nopRecorder{} }

const namespace = "scimix"

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	duration     *prometheus.HistogramVec
	sweeps       prometheus.Counter
	accepted     prometheus.Counter
	emIterations prometheus.Counter
	fits         *prometheus.CounterVec
	superseded   *prometheus.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Wall time of one engine call.",
			Buckets:   durationBuckets,
		}, []string{"engine"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mixture",
			Name:      "sweeps_total",
			Help:      "Completed local-search sweeps.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mixture",
			Name:      "accepted_moves_total",
			Help:      "Accepted slot reassignments.",
		}),
		emIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gmm",
			Name:      "em_iterations_total",
			Help:      "EM iterations run by Gaussian mixture fits.",
		}),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gmm",
			Name:      "fits_total",
			Help:      "Finished Gaussian mixture fits by convergence outcome.",
		}, []string{"converged"}),
		superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_total",
			Help:      "Engine calls abandoned because a newer job started.",
		}, []string{"engine"}),
	}

	collectors := []prometheus.Collector{
		r.duration, r.sweeps, r.accepted, r.emIterations, r.fits, r.superseded,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register telemetry collector")
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveDuration(engine string, d time.Duration) {
	r.duration.WithLabelValues(engine).Observe(d.Seconds())
}

func (r *PrometheusRecorder) AddSweeps(n int) { r.sweeps.Add(float64(n)) }

func (r *PrometheusRecorder) AddAcceptedMoves(n int) { r.accepted.Add(float64(n)) }

func (r *PrometheusRecorder) AddEMIterations(n int) { r.emIterations.Add(float64(n)) }

func (r *PrometheusRecorder) ObserveFit(converged bool) {
	label := "false"
	if converged {
		label = "true"
	}
	r.fits.WithLabelValues(label).Inc()
}

func (r *PrometheusRecorder) IncSuperseded(engine string) {
	r.superseded.WithLabelValues(engine).Inc()
}

// WriteText gathers g and writes the Prometheus text exposition format to w.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	return nil
}
