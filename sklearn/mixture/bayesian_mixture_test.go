package mixture

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// twoClusters は (0,0) と (10,10) を中心とする標準偏差0.5の2クラスタを生成
func twoClusters(perCluster int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*perCluster, 2, nil)
	for i := 0; i < perCluster; i++ {
		X.Set(i, 0, rng.NormFloat64()*0.5)
		X.Set(i, 1, rng.NormFloat64()*0.5)
		X.Set(perCluster+i, 0, 10+rng.NormFloat64()*0.5)
		X.Set(perCluster+i, 1, 10+rng.NormFloat64()*0.5)
	}
	return X
}

// closestMean は (cx, cy) に最も近い成分平均までの距離を返す
func closestMean(means *mat.Dense, cx, cy float64) float64 {
	k, _ := means.Dims()
	best := math.Inf(1)
	for c := 0; c < k; c++ {
		d := math.Hypot(means.At(c, 0)-cx, means.At(c, 1)-cy)
		best = math.Min(best, d)
	}
	return best
}

func TestBayesianGaussianMixtureTwoClusters(t *testing.T) {
	X := twoClusters(50, 7)

	for _, covType := range []string{CovarianceDiag, CovarianceFull} {
		t.Run(covType, func(t *testing.T) {
			gmm := NewBayesianGaussianMixture(
				WithNComponents(2),
				WithCovarianceType(covType),
				WithRandomState(1),
			)
			if err := gmm.Fit(X); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			if !gmm.IsFitted() {
				t.Fatal("Model should be fitted after Fit()")
			}

			means := gmm.Means()
			if d := closestMean(means, 0, 0); d > 0.3 {
				t.Errorf("no component near (0,0): distance %v, means %v", d, mat.Formatted(means))
			}
			if d := closestMean(means, 10, 10); d > 0.3 {
				t.Errorf("no component near (10,10): distance %v, means %v", d, mat.Formatted(means))
			}

			weights := gmm.Weights()
			if math.Abs(floats.Sum(weights)-1) > 1e-9 {
				t.Errorf("weights sum to %v", floats.Sum(weights))
			}
			for _, w := range weights {
				if math.Abs(w-0.5) > 0.05 {
					t.Errorf("weight %v, want ~0.5", w)
				}
			}

			labels := gmm.Labels()
			for i := 1; i < 50; i++ {
				if labels[i] != labels[0] || labels[50+i] != labels[50] {
					t.Fatalf("cluster members split across components: %v", labels)
				}
			}
			if labels[0] == labels[50] {
				t.Error("both clusters assigned to the same component")
			}

			for c, cov := range gmm.Covariances() {
				for j := 0; j < 2; j++ {
					if cov.At(j, j) < DefaultVarianceFloor {
						t.Errorf("component %d variance %v below floor", c, cov.At(j, j))
					}
				}
			}
		})
	}
}

func TestBayesianGaussianMixtureResponsibilities(t *testing.T) {
	X := twoClusters(30, 3)
	gmm := NewBayesianGaussianMixture(WithNComponents(3), WithRandomState(5))
	if err := gmm.Fit(X); err != nil {
		t.Fatal(err)
	}

	resp := gmm.Responsibilities()
	n, k := resp.Dims()
	if n != 60 || k != 3 {
		t.Fatalf("responsibilities shape = (%d, %d)", n, k)
	}
	for i := 0; i < n; i++ {
		sum := floats.Sum(mat.Row(nil, i, resp))
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d sums to %v", i, sum)
		}
	}

	proba, err := gmm.PredictProba(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		sum := floats.Sum(mat.Row(nil, i, proba))
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("PredictProba row %d sums to %v", i, sum)
		}
	}

	pred, err := gmm.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if len(pred) != n {
		t.Fatalf("Predict returned %d labels", len(pred))
	}
}

func TestBayesianGaussianMixtureLogLikelihoodNonDecreasing(t *testing.T) {
	X := twoClusters(50, 11)
	for _, covType := range []string{CovarianceDiag, CovarianceFull} {
		gmm := NewBayesianGaussianMixture(WithNComponents(2), WithCovarianceType(covType), WithRandomState(2))
		if err := gmm.Fit(X); err != nil {
			t.Fatal(err)
		}
		history := gmm.LogLikelihoodHistory()
		if len(history) != gmm.NIter() {
			t.Fatalf("%s: history length %d != iterations %d", covType, len(history), gmm.NIter())
		}
		for i := 1; i < len(history); i++ {
			if history[i] < history[i-1]-1e-3 {
				t.Errorf("%s: log-likelihood decreased at iteration %d: %v -> %v", covType, i+1, history[i-1], history[i])
			}
		}
		if gmm.LogLikelihood() != history[len(history)-1] {
			t.Errorf("%s: LogLikelihood %v != last history entry %v", covType, gmm.LogLikelihood(), history[len(history)-1])
		}
		if !gmm.Converged() {
			t.Errorf("%s: expected convergence on separated clusters", covType)
		}
	}
}

func TestBayesianGaussianMixtureKMeansInit(t *testing.T) {
	X := twoClusters(40, 13)
	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithInitParams(InitKMeans), WithRandomState(4))
	if err := gmm.Fit(X); err != nil {
		t.Fatal(err)
	}
	means := gmm.Means()
	if closestMean(means, 0, 0) > 0.3 || closestMean(means, 10, 10) > 0.3 {
		t.Errorf("means = %v", mat.Formatted(means))
	}
}

func TestBayesianGaussianMixtureReproducible(t *testing.T) {
	X := twoClusters(20, 17)
	a := NewBayesianGaussianMixture(WithNComponents(3), WithRandomState(9))
	b := NewBayesianGaussianMixture(WithNComponents(3), WithRandomState(9))
	if err := a.Fit(X); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X); err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a.Means(), b.Means()) {
		t.Error("same random state should give identical means")
	}
	if a.LogLikelihood() != b.LogLikelihood() {
		t.Errorf("log-likelihood %v vs %v", a.LogLikelihood(), b.LogLikelihood())
	}
}

func TestBayesianGaussianMixtureParallelEStepMatchesInline(t *testing.T) {
	X := twoClusters(400, 5)
	for _, covType := range []string{CovarianceDiag, CovarianceFull} {
		t.Run(covType, func(t *testing.T) {
			parallelFit := NewBayesianGaussianMixture(WithNComponents(2), WithCovarianceType(covType), WithRandomState(3))
			inlineFit := NewBayesianGaussianMixture(WithNComponents(2), WithCovarianceType(covType), WithRandomState(3))
			inlineFit.eStepThreshold = math.MaxInt

			if err := parallelFit.Fit(X); err != nil {
				t.Fatal(err)
			}
			if err := inlineFit.Fit(X); err != nil {
				t.Fatal(err)
			}
			if parallelFit.LogLikelihood() != inlineFit.LogLikelihood() {
				t.Errorf("log-likelihood %v vs %v", parallelFit.LogLikelihood(), inlineFit.LogLikelihood())
			}
			if !mat.Equal(parallelFit.Means(), inlineFit.Means()) {
				t.Error("row-partitioned E-step should give identical means")
			}
			if parallelFit.NIter() != inlineFit.NIter() {
				t.Errorf("iterations %d vs %d", parallelFit.NIter(), inlineFit.NIter())
			}
		})
	}
}

func TestBayesianGaussianMixtureInvalidInput(t *testing.T) {
	X := twoClusters(5, 1)
	nanX := mat.NewDense(2, 2, []float64{1, 2, math.NaN(), 4})

	tests := []struct {
		name string
		gmm  *BayesianGaussianMixture
		X    mat.Matrix
	}{
		{"zero components", NewBayesianGaussianMixture(WithNComponents(0)), X},
		{"more components than points", NewBayesianGaussianMixture(WithNComponents(11)), X},
		{"unknown covariance", NewBayesianGaussianMixture(WithCovarianceType("spherical")), X},
		{"unknown init", NewBayesianGaussianMixture(WithInitParams("random")), X},
		{"zero tol", NewBayesianGaussianMixture(WithTol(0)), X},
		{"negative df", NewBayesianGaussianMixture(WithCovPriorDf(-1)), X},
		{"non-finite", NewBayesianGaussianMixture(WithNComponents(1)), nanX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gmm.Fit(tt.X)
			if !errors.IsInvalidInput(err) {
				t.Errorf("expected invalid input, got %v", err)
			}
			if tt.gmm.IsFitted() {
				t.Error("model must stay unfitted")
			}
		})
	}
}

func TestBayesianGaussianMixtureNotFitted(t *testing.T) {
	gmm := NewBayesianGaussianMixture()
	_, err := gmm.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
	if _, err := gmm.Result(); err == nil {
		t.Error("Result on an unfitted model should fail")
	}
}

func TestBayesianGaussianMixtureDimensionMismatch(t *testing.T) {
	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithRandomState(1))
	if err := gmm.Fit(twoClusters(10, 2)); err != nil {
		t.Fatal(err)
	}
	_, err := gmm.PredictProba(mat.NewDense(1, 3, []float64{0, 0, 0}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestBayesianGaussianMixtureConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithMaxIter(1), WithRandomState(1))
	if err := gmm.Fit(twoClusters(10, 5)); err != nil {
		t.Fatal(err)
	}
	if gmm.Converged() {
		t.Fatal("a single iteration cannot converge")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	var cw *errors.ConvergenceWarning
	if !errors.As(warnings[0], &cw) || cw.Iterations != 1 {
		t.Errorf("unexpected warning %v", warnings[0])
	}
}

func TestBayesianGaussianMixtureSuperseded(t *testing.T) {
	tracker := model.NewJobTracker()
	ctx, job := tracker.Start(context.Background())
	defer job.Release()
	tracker.Start(context.Background())

	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithRandomState(1))
	err := gmm.FitContext(ctx, twoClusters(20, 1))
	if !model.IsSuperseded(err) {
		t.Fatalf("expected superseded error, got %v", err)
	}
	if gmm.IsFitted() {
		t.Error("a superseded fit must not leave a fitted model")
	}
}

func TestBayesianGaussianMixtureLogsFit(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithRandomState(1), WithLogger(logger))
	if err := gmm.Fit(twoClusters(10, 3)); err != nil {
		t.Fatal(err)
	}
	if !logger.ContainsMessage("Fit finished") {
		t.Error("expected finish record")
	}
	if !logger.ContainsField(log.ComponentsKey, float64(2)) {
		t.Error("expected component count field")
	}
	if !logger.ContainsField(log.EstimatorIDKey, gmm.RunID()) {
		t.Error("expected run id field")
	}
}

func TestResultAndSummary(t *testing.T) {
	X := twoClusters(15, 21)
	gmm := NewBayesianGaussianMixture(WithNComponents(2), WithCovarianceType(CovarianceFull), WithRandomState(3))
	if err := gmm.Fit(X); err != nil {
		t.Fatal(err)
	}

	res, err := gmm.Result()
	if err != nil {
		t.Fatal(err)
	}
	if res.K != 2 || len(res.Components) != 2 || len(res.Responsibilities) != 30 {
		t.Fatalf("unexpected result shape: %+v", res)
	}
	for _, comp := range res.Components {
		if comp.Variance != nil || len(comp.Covariance) != 2 {
			t.Errorf("full model should report covariance matrices: %+v", comp)
		}
	}
	if res.Priors.WeightPrior != DefaultWeightPrior {
		t.Errorf("WeightPrior = %v", res.Priors.WeightPrior)
	}

	names := make([]string, 30)
	for i := range names {
		names[i] = "s"
	}
	sum, err := gmm.Summary(names)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(floats.Sum(sum.Average)-1) > 1e-9 {
		t.Errorf("averages sum to %v", floats.Sum(sum.Average))
	}
	if sum.Average[sum.ColumnOrder[0]] < sum.Average[sum.ColumnOrder[1]] {
		t.Errorf("ColumnOrder %v not descending for %v", sum.ColumnOrder, sum.Average)
	}
	for i, p := range sum.MaxProb {
		if p < 0.5 {
			t.Errorf("MaxProb[%d] = %v, a two-component argmax is at least 0.5", i, p)
		}
	}
}

func TestNewSummary(t *testing.T) {
	resp := mat.NewDense(3, 2, []float64{
		0.9, 0.1,
		0.2, 0.8,
		0.3, 0.7,
	})
	sum, err := NewSummary(nil, resp, []int{0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	wantAvg := []float64{1.4 / 3, 1.6 / 3}
	if !floats.EqualApprox(sum.Average, wantAvg, 1e-12) {
		t.Errorf("Average = %v, want %v", sum.Average, wantAvg)
	}
	if sum.ColumnOrder[0] != 1 || sum.ColumnOrder[1] != 0 {
		t.Errorf("ColumnOrder = %v", sum.ColumnOrder)
	}
	if sum.DisplayLabels[0] != 2 || sum.DisplayLabels[1] != 1 {
		t.Errorf("DisplayLabels = %v", sum.DisplayLabels)
	}
	if !floats.Equal(sum.MaxProb, []float64{0.9, 0.8, 0.7}) {
		t.Errorf("MaxProb = %v", sum.MaxProb)
	}

	if _, err := NewSummary([]string{"a"}, resp, []int{0, 1, 1}); err == nil {
		t.Error("name count mismatch should fail")
	}
}

func BenchmarkExpectation(b *testing.B) {
	X := twoClusters(500, 1)
	gmm := NewBayesianGaussianMixture(WithNComponents(4), WithCovarianceType(CovarianceFull), WithRandomState(1))
	if err := gmm.Fit(X); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = gmm.PredictProba(X)
	}
}
