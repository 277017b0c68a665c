// Package mixture はMAP正則化付きのベイズ混合ガウスモデルを提供します。
//
// EMアルゴリズムの各M-stepは平均・共分散・混合比の事前分布に向けて
// 縮小推定を行うため、小さなクラスタでも成分が潰れにくくなります。
// AIC/BICによる成分数の選択は SelectModel を参照してください。
package mixture

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/YuminosukeSato/scimix/core/linalg"
	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/core/parallel"
	"github.com/YuminosukeSato/scimix/metrics"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
	"github.com/YuminosukeSato/scimix/sklearn/cluster"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const modelName = "BayesianGaussianMixture"

var log2Pi = math.Log(2 * math.Pi)

var _ model.Clusterer = (*BayesianGaussianMixture)(nil)

// BayesianGaussianMixture はMAP推定による混合ガウスモデル
type BayesianGaussianMixture struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nComponents       int
	covarianceType    string
	maxIter           int
	tol               float64
	varianceFloor     float64
	weightPrior       float64
	meanPriorStrength float64
	covPriorScale     float64
	covPriorDf        float64
	randomState       int64
	initParams        string

	// eStepThreshold 以下のサンプル数ではE-stepを呼び出し元のゴルーチンで実行する
	eStepThreshold int

	logger   log.Logger
	recorder telemetry.Recorder

	// 学習パラメータ
	params_           *params
	priors_           *priors
	responsibilities_ *mat.Dense
	labels_           []int
	logLikelihood_    float64
	bic_              float64
	aic_              float64
	converged_        bool
	nIter_            int
	history_          []float64
	nFeatures_        int
	runID_            string

	mu sync.RWMutex
}

// params はEMで更新される成分パラメータ
type params struct {
	weights     []float64
	means       [][]float64
	variances   [][]float64      // diag
	covariances []*mat.SymDense // full
}

// priors は全データから求めた事前分布のハイパーパラメータ
type priors struct {
	weightPrior       float64
	meanPriorStrength float64
	meanPrior         []float64
	varAlpha          float64        // 逆ガンマ分布の形状 (diag)
	varBeta           []float64      // 逆ガンマ分布の尺度 (diag)
	covPrior          *mat.SymDense // 逆ウィシャート分布の尺度行列 Ψ0 (full)
	covNu             float64        // 逆ウィシャート分布の自由度 ν0 (full)
}

// gaussianCache はfull共分散の逆行列と対数行列式
type gaussianCache struct {
	inv    *mat.Dense
	logDet float64
}

// NewBayesianGaussianMixture は新しいBayesianGaussianMixtureを作成
func NewBayesianGaussianMixture(options ...Option) *BayesianGaussianMixture {
	g := &BayesianGaussianMixture{
		nComponents:       DefaultNComponents,
		covarianceType:    CovarianceDiag,
		maxIter:           DefaultMaxIter,
		tol:               DefaultTol,
		varianceFloor:     DefaultVarianceFloor,
		weightPrior:       DefaultWeightPrior,
		meanPriorStrength: DefaultMeanPriorStrength,
		covPriorScale:     DefaultCovPriorScale,
		covPriorDf:        DefaultCovPriorDf,
		randomState:       -1,
		initParams:        InitKMeansPlusPlus,
		eStepThreshold:    eStepParallelThreshold,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.GetLoggerWithName("gmm")
	}
	if g.recorder == nil {
		g.recorder = telemetry.Nop()
	}
	g.logger = g.logger.With(log.ModelNameKey, modelName)
	return g
}

// Fit はEMアルゴリズムでモデルを学習
func (g *BayesianGaussianMixture) Fit(X mat.Matrix) error {
	return g.FitContext(context.Background(), X)
}

// FitContext はキャンセル可能な学習を行う
//
// 各EMイテレーションの後にチェックポイントを置く。新しいジョブに置き換えられた場合は
// 学習済みの状態を変更せずに errors.ErrSuperseded に一致するエラーを返す。
func (g *BayesianGaussianMixture) FitContext(ctx context.Context, X mat.Matrix) (err error) {
	defer errors.Recover(&err, modelName+".Fit")

	g.mu.Lock()
	defer g.mu.Unlock()

	points := linalg.Rows(X)
	if err := g.validate(points); err != nil {
		return err
	}
	n, d := len(points), len(points[0])

	start := time.Now()
	runID := uuid.NewString()
	logger := g.logger.With(log.EstimatorIDKey, runID)
	if job, ok := model.JobFromContext(ctx); ok {
		logger = logger.With(log.JobIDKey, job.ID)
	}
	logger.Debug("Fit started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ComponentsKey, g.nComponents,
		log.CovarianceTypeKey, g.covarianceType,
	)

	rng := newRand(g.randomState)
	pr, p, err := g.initialize(ctx, X, points, rng)
	if err != nil {
		return g.abandon(logger, err)
	}

	prevLogLik := math.Inf(-1)
	history := make([]float64, 0, g.maxIter)
	var resp *mat.Dense
	converged := false
	iterations := 0

	for iter := 0; iter < g.maxIter; iter++ {
		r, logLik, err := g.expectation(points, p, iter)
		if err != nil {
			g.recorder.AddEMIterations(iterations)
			return err
		}
		resp = r
		p = g.maximization(points, resp, pr)

		iterations = iter + 1
		history = append(history, logLik)
		logger.Debug("EM iteration", log.IterationKey, iterations, log.LogLikelihoodKey, logLik)

		if math.Abs(logLik-prevLogLik) < g.tol {
			converged = true
			prevLogLik = logLik
			break
		}
		prevLogLik = logLik

		if err := model.Checkpoint(ctx); err != nil {
			g.recorder.AddEMIterations(iterations)
			return g.abandon(logger, err)
		}
	}
	g.recorder.AddEMIterations(iterations)

	nParams := metrics.ParamCount(g.nComponents, d, g.covarianceType)
	bic, err := metrics.BIC(prevLogLik, nParams, n)
	if err != nil {
		return err
	}

	g.params_ = p
	g.priors_ = pr
	g.responsibilities_ = resp
	g.labels_ = argmaxRows(resp)
	g.logLikelihood_ = prevLogLik
	g.bic_ = bic
	g.aic_ = metrics.AIC(prevLogLik, nParams)
	g.converged_ = converged
	g.nIter_ = iterations
	g.history_ = history
	g.nFeatures_ = d
	g.runID_ = runID
	g.SetFitted()

	g.recorder.ObserveFit(converged)
	g.recorder.ObserveDuration(telemetry.EngineGMM, time.Since(start))

	if !converged {
		errors.Warn(errors.NewConvergenceWarning(modelName, iterations,
			"EM did not converge. Consider increasing max_iter or tol."))
	}

	logger.Info("Fit finished",
		log.OperationKey, log.OperationFit,
		log.ComponentsKey, g.nComponents,
		log.IterationKey, iterations,
		log.LogLikelihoodKey, prevLogLik,
		log.ConvergedKey, converged,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// abandon は中断されたフィットを記録してエラーを返す
func (g *BayesianGaussianMixture) abandon(logger log.Logger, err error) error {
	if model.IsSuperseded(err) {
		g.recorder.IncSuperseded(telemetry.EngineGMM)
		logger.Debug("Fit superseded", log.ErrorCodeKey, log.ErrorSuperseded)
	}
	return err
}

func (g *BayesianGaussianMixture) validate(points [][]float64) error {
	n := len(points)
	if n == 0 {
		return errors.NewModelError(modelName+".Fit", "no points", errors.ErrEmptyData)
	}
	if g.nComponents < 1 || g.nComponents > n {
		return errors.NewValidationError("n_components", fmt.Sprintf("must be in [1, %d]", n), g.nComponents)
	}
	if g.covarianceType != CovarianceDiag && g.covarianceType != CovarianceFull {
		return errors.NewValidationError("covariance_type", "must be 'diag' or 'full'", g.covarianceType)
	}
	if g.initParams != InitKMeansPlusPlus && g.initParams != InitKMeans {
		return errors.NewValidationError("init_params", "must be 'k-means++' or 'kmeans'", g.initParams)
	}
	if g.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", g.maxIter)
	}
	if !(g.tol > 0) {
		return errors.NewValidationError("tol", "must be > 0", g.tol)
	}
	if !(g.varianceFloor > 0) {
		return errors.NewValidationError("variance_floor", "must be > 0", g.varianceFloor)
	}
	if !(g.weightPrior > 0) {
		return errors.NewValidationError("weight_prior", "must be > 0", g.weightPrior)
	}
	if !(g.meanPriorStrength > 0) {
		return errors.NewValidationError("mean_prior_strength", "must be > 0", g.meanPriorStrength)
	}
	if !(g.covPriorScale > 0) {
		return errors.NewValidationError("cov_prior_scale", "must be > 0", g.covPriorScale)
	}
	if !(g.covPriorDf >= 0) {
		return errors.NewValidationError("cov_prior_df", "must be >= 0", g.covPriorDf)
	}
	for i, p := range points {
		if err := errors.CheckNumericalStability(modelName+".Fit", p, i); err != nil {
			return err
		}
	}
	return nil
}

// initialize は事前分布と初期パラメータを求める
func (g *BayesianGaussianMixture) initialize(ctx context.Context, X mat.Matrix, points [][]float64, rng *rand.Rand) (*priors, *params, error) {
	k, d := g.nComponents, len(points[0])

	means, err := g.initialMeans(ctx, X, points, rng)
	if err != nil {
		return nil, nil, err
	}

	overallMean, err := linalg.MeanVector(points)
	if err != nil {
		return nil, nil, err
	}

	pr := &priors{
		weightPrior:       math.Max(1e-6, g.weightPrior),
		meanPriorStrength: math.Max(1e-6, g.meanPriorStrength),
		meanPrior:         overallMean,
	}
	p := &params{means: means, weights: make([]float64, k)}
	for c := range p.weights {
		p.weights[c] = 1 / float64(k)
	}

	if g.covarianceType == CovarianceFull {
		baseCov := linalg.CovarianceMatrix(points, overallMean, g.varianceFloor)
		pr.covNu = math.Max(float64(d+2), float64(d)+g.covPriorDf+2)
		pr.covPrior = mat.NewSymDense(d, nil)
		pr.covPrior.ScaleSym(g.covPriorScale*(pr.covNu+float64(d)+1), baseCov)

		p.covariances = make([]*mat.SymDense, k)
		for c := range p.covariances {
			p.covariances[c] = mat.NewSymDense(d, nil)
			p.covariances[c].CopySym(baseCov)
		}
		return pr, p, nil
	}

	baseVar := linalg.VarianceVector(points, overallMean, g.varianceFloor)
	pr.varAlpha = math.Max(2, g.covPriorDf+2)
	pr.varBeta = make([]float64, d)
	for j, v := range baseVar {
		pr.varBeta[j] = math.Max(v*g.covPriorScale, g.varianceFloor) * (pr.varAlpha + 1)
	}
	p.variances = make([][]float64, k)
	for c := range p.variances {
		p.variances[c] = append([]float64(nil), baseVar...)
	}
	return pr, p, nil
}

// initialMeans はk-means++（必要ならミニバッチK-meansで精緻化）で平均の初期値を選ぶ
func (g *BayesianGaussianMixture) initialMeans(ctx context.Context, X mat.Matrix, points [][]float64, rng *rand.Rand) ([][]float64, error) {
	if g.initParams != InitKMeans {
		return cluster.KMeansPlusPlus(points, g.nComponents, rng), nil
	}
	km := cluster.NewMiniBatchKMeans(
		cluster.WithKMeansNClusters(g.nComponents),
		cluster.WithKMeansRand(rng),
		cluster.WithKMeansNInit(1),
		cluster.WithKMeansMaxIter(kmeansRefineIter),
	)
	if err := km.FitContext(ctx, X); err != nil {
		return nil, err
	}
	return km.ClusterCenters(), nil
}

// expectation は負担率と全データの対数尤度を計算する
func (g *BayesianGaussianMixture) expectation(points [][]float64, p *params, iter int) (*mat.Dense, float64, error) {
	n, k, d := len(points), len(p.weights), len(points[0])

	var cache []gaussianCache
	if g.covarianceType == CovarianceFull {
		cache = make([]gaussianCache, k)
		for c, cov := range p.covariances {
			inv, logDet, err := linalg.InvertWithLogDet(cov)
			if err != nil {
				return nil, 0, err
			}
			cache[c] = gaussianCache{inv: inv, logDet: logDet}
		}
	}

	logWeights := make([]float64, k)
	for c, w := range p.weights {
		logWeights[c] = errors.StabilizeLog(w)
	}

	resp := mat.NewDense(n, k, nil)
	rowLogLik := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, g.eStepThreshold, func(start, end int) {
		logProbs := make([]float64, k)
		diff := mat.NewVecDense(d, nil)
		for i := start; i < end; i++ {
			x := points[i]
			for c := 0; c < k; c++ {
				var logGauss float64
				if cache != nil {
					logGauss = logGaussianFull(x, p.means[c], cache[c], diff)
				} else {
					logGauss = logGaussianDiag(x, p.means[c], p.variances[c])
				}
				logProbs[c] = logWeights[c] + logGauss
			}
			logSum := errors.LogSumExp(logProbs)
			rowLogLik[i] = logSum
			for c := 0; c < k; c++ {
				resp.Set(i, c, math.Exp(logProbs[c]-logSum))
			}
		}
	})

	logLik := floats.Sum(rowLogLik)
	if err := errors.CheckScalar(modelName+".expectation", logLik, iter); err != nil {
		return nil, 0, err
	}
	return resp, logLik, nil
}

func logGaussianDiag(x, mean, variance []float64) float64 {
	quad, logDet := 0.0, 0.0
	for j := range x {
		diff := x[j] - mean[j]
		quad += diff * diff / variance[j]
		logDet += math.Log(variance[j])
	}
	return -0.5 * (float64(len(x))*log2Pi + logDet + quad)
}

func logGaussianFull(x, mean []float64, cache gaussianCache, diff *mat.VecDense) float64 {
	for j := range x {
		diff.SetVec(j, x[j]-mean[j])
	}
	quad := mat.Inner(diff, cache.inv, diff)
	return -0.5 * (float64(len(x))*log2Pi + cache.logDet + quad)
}

// maximization は負担率からMAP推定でパラメータを更新する
//
// 平均は (κ0·x̄ + n_k·x̄_k)/(κ0 + n_k)。
// diag: 分散は逆ガンマ事後分布のモード β_n/(α_n + 1)。
// full: 共分散は (Ψ0 + S_k + κ0·n_k/(κ0+n_k)·ddᵀ)/(ν0 + n_k + D + 1)。
func (g *BayesianGaussianMixture) maximization(points [][]float64, resp *mat.Dense, pr *priors) *params {
	n, k := resp.Dims()
	d := len(points[0])

	nk := make([]float64, k)
	for c := 0; c < k; c++ {
		nk[c] = floats.Sum(mat.Col(nil, c, resp))
	}

	// 負担率で重み付けした平均 x̄_k
	xbars := make([][]float64, k)
	for c := range xbars {
		xbars[c] = make([]float64, d)
	}
	for i, x := range points {
		for c := 0; c < k; c++ {
			if r := resp.At(i, c); r != 0 {
				floats.AddScaled(xbars[c], r, x)
			}
		}
	}
	for c := 0; c < k; c++ {
		denom := nk[c]
		if denom == 0 {
			denom = 1
		}
		floats.Scale(1/denom, xbars[c])
	}

	kappa0, mu0 := pr.meanPriorStrength, pr.meanPrior
	out := &params{
		weights: make([]float64, k),
		means:   make([][]float64, k),
	}
	for c := 0; c < k; c++ {
		kappaN := math.Max(1e-12, kappa0+nk[c])
		out.means[c] = make([]float64, d)
		for j := 0; j < d; j++ {
			out.means[c][j] = (kappa0*mu0[j] + nk[c]*xbars[c][j]) / kappaN
		}
	}

	if g.covarianceType == CovarianceFull {
		out.covariances = g.fullCovariances(points, resp, pr, nk, xbars)
	} else {
		out.variances = g.diagVariances(points, resp, pr, nk, xbars)
	}

	alpha := pr.weightPrior
	for c := 0; c < k; c++ {
		out.weights[c] = math.Max((nk[c]+alpha)/(float64(n)+float64(k)*alpha), 1e-12)
	}
	return out
}

func (g *BayesianGaussianMixture) diagVariances(points [][]float64, resp *mat.Dense, pr *priors, nk []float64, xbars [][]float64) [][]float64 {
	k, d := len(nk), len(points[0])
	scatter := make([][]float64, k)
	for c := range scatter {
		scatter[c] = make([]float64, d)
	}
	for i, x := range points {
		for c := 0; c < k; c++ {
			r := resp.At(i, c)
			if r == 0 {
				continue
			}
			for j := 0; j < d; j++ {
				diff := x[j] - xbars[c][j]
				scatter[c][j] += r * diff * diff
			}
		}
	}

	kappa0, mu0 := pr.meanPriorStrength, pr.meanPrior
	variances := make([][]float64, k)
	for c := 0; c < k; c++ {
		variances[c] = make([]float64, d)
		shrink := kappa0 * nk[c] / math.Max(1e-12, kappa0+nk[c])
		alphaN := pr.varAlpha + nk[c]/2
		for j := 0; j < d; j++ {
			diff := xbars[c][j] - mu0[j]
			betaN := pr.varBeta[j] + 0.5*scatter[c][j] + shrink*diff*diff/2
			mode := betaN / math.Max(1e-12, alphaN+1)
			variances[c][j] = math.Max(mode, g.varianceFloor)
		}
	}
	return variances
}

func (g *BayesianGaussianMixture) fullCovariances(points [][]float64, resp *mat.Dense, pr *priors, nk []float64, xbars [][]float64) []*mat.SymDense {
	k, d := len(nk), len(points[0])
	scatter := make([]*mat.SymDense, k)
	for c := range scatter {
		scatter[c] = mat.NewSymDense(d, nil)
	}
	diff := mat.NewVecDense(d, nil)
	for i, x := range points {
		for c := 0; c < k; c++ {
			r := resp.At(i, c)
			if r == 0 {
				continue
			}
			for j := 0; j < d; j++ {
				diff.SetVec(j, x[j]-xbars[c][j])
			}
			scatter[c].SymRankOne(scatter[c], r, diff)
		}
	}

	kappa0, mu0 := pr.meanPriorStrength, pr.meanPrior
	covariances := make([]*mat.SymDense, k)
	for c := 0; c < k; c++ {
		for j := 0; j < d; j++ {
			diff.SetVec(j, xbars[c][j]-mu0[j])
		}
		shrink := kappa0 * nk[c] / math.Max(1e-12, kappa0+nk[c])

		psi := mat.NewSymDense(d, nil)
		psi.AddSym(pr.covPrior, scatter[c])
		psi.SymRankOne(psi, shrink, diff)
		psi.ScaleSym(1/math.Max(1e-12, pr.covNu+nk[c]+float64(d)+1), psi)
		for j := 0; j < d; j++ {
			psi.SetSym(j, j, math.Max(psi.At(j, j), g.varianceFloor))
		}
		covariances[c] = psi
	}
	return covariances
}

// Predict は各サンプルの最も負担率の高い成分を返す
func (g *BayesianGaussianMixture) Predict(X mat.Matrix) ([]int, error) {
	resp, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(resp), nil
}

// PredictProba は (n_samples, n_components) の負担率行列を返す
func (g *BayesianGaussianMixture) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	resp, _, err := g.score(X, "PredictProba")
	return resp, err
}

// Score はサンプルあたりの平均対数尤度を返す
func (g *BayesianGaussianMixture) Score(X mat.Matrix) (float64, error) {
	_, logLik, err := g.score(X, "Score")
	if err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	return logLik / float64(n), nil
}

func (g *BayesianGaussianMixture) score(X mat.Matrix, method string) (*mat.Dense, float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.CheckFitted(modelName, method); err != nil {
		return nil, 0, err
	}
	rows, cols := X.Dims()
	if cols != g.nFeatures_ {
		return nil, 0, errors.NewDimensionError(modelName+"."+method, g.nFeatures_, cols, 1)
	}
	if rows == 0 {
		return nil, 0, errors.NewModelError(modelName+"."+method, "no points", errors.ErrEmptyData)
	}
	return g.expectation(linalg.Rows(X), g.params_, 0)
}

// argmaxRows は各行の最大要素の列番号を返す（同値なら先頭）
func argmaxRows(m *mat.Dense) []int {
	n, k := m.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		best, bestVal := 0, m.At(i, 0)
		for c := 1; c < k; c++ {
			if v := m.At(i, c); v > bestVal {
				best, bestVal = c, v
			}
		}
		labels[i] = best
	}
	return labels
}

func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NComponents は成分数を返す
func (g *BayesianGaussianMixture) NComponents() int { return g.nComponents }

// CovarianceType は共分散の種類を返す
func (g *BayesianGaussianMixture) CovarianceType() string { return g.covarianceType }

// Weights は混合比を返す
func (g *BayesianGaussianMixture) Weights() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.params_ == nil {
		return nil
	}
	return append([]float64(nil), g.params_.weights...)
}

// Means は (n_components, n_features) の平均行列を返す
func (g *BayesianGaussianMixture) Means() *mat.Dense {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.params_ == nil {
		return nil
	}
	k := len(g.params_.means)
	out := mat.NewDense(k, g.nFeatures_, nil)
	for c, m := range g.params_.means {
		out.SetRow(c, m)
	}
	return out
}

// Covariances は各成分の共分散行列を返す（diagの場合は対角行列）
func (g *BayesianGaussianMixture) Covariances() []*mat.SymDense {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.params_ == nil {
		return nil
	}
	k := len(g.params_.weights)
	out := make([]*mat.SymDense, k)
	for c := 0; c < k; c++ {
		out[c] = mat.NewSymDense(g.nFeatures_, nil)
		if g.covarianceType == CovarianceFull {
			out[c].CopySym(g.params_.covariances[c])
			continue
		}
		for j, v := range g.params_.variances[c] {
			out[c].SetSym(j, j, v)
		}
	}
	return out
}

// Responsibilities は学習データの最終E-stepの負担率を返す
func (g *BayesianGaussianMixture) Responsibilities() *mat.Dense {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.responsibilities_ == nil {
		return nil
	}
	return mat.DenseCopyOf(g.responsibilities_)
}

// Labels は学習データのハードな割り当てを返す
func (g *BayesianGaussianMixture) Labels() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]int(nil), g.labels_...)
}

// LogLikelihood は最終イテレーションの対数尤度を返す
func (g *BayesianGaussianMixture) LogLikelihood() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.logLikelihood_
}

// LogLikelihoodHistory は各EMイテレーションの対数尤度を返す
func (g *BayesianGaussianMixture) LogLikelihoodHistory() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]float64(nil), g.history_...)
}

// BIC はベイズ情報量規準を返す
func (g *BayesianGaussianMixture) BIC() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bic_
}

// AIC は赤池情報量規準を返す
func (g *BayesianGaussianMixture) AIC() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.aic_
}

// Converged はEMが収束したかどうかを返す
func (g *BayesianGaussianMixture) Converged() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.converged_
}

// NIter は実行されたEMイテレーション数を返す
func (g *BayesianGaussianMixture) NIter() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nIter_
}

// RunID は直近のフィットの識別子を返す
func (g *BayesianGaussianMixture) RunID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.runID_
}
