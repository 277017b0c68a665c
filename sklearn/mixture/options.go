package mixture

import (
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
)

// 共分散の種類
const (
	CovarianceDiag = "diag"
	CovarianceFull = "full"
)

// モデル選択の情報量規準
const (
	CriterionNone = "none"
	CriterionAIC  = "aic"
	CriterionBIC  = "bic"
)

// 初期化方法
const (
	// InitKMeansPlusPlus はk-means++のシードをそのまま平均の初期値にする
	InitKMeansPlusPlus = "k-means++"
	// InitKMeans はk-means++のシードをミニバッチK-meansで数回精緻化する
	InitKMeans = "kmeans"
)

// デフォルト値
const (
	DefaultNComponents       = 3
	DefaultMaxIter           = 100
	DefaultTol               = 1e-4
	DefaultVarianceFloor     = 1e-6
	DefaultWeightPrior       = 1.1
	DefaultMeanPriorStrength = 0.01
	DefaultCovPriorScale     = 1.0
	DefaultCovPriorDf        = 2.0
	DefaultMinK              = 2
	DefaultMaxK              = 8

	// kmeansRefineIter はInitKMeansで実行するミニバッチK-meansの反復回数
	kmeansRefineIter = 10
	// eStepParallelThreshold を超えるサンプル数ではE-stepを並列化する
	eStepParallelThreshold = 512
)

// Option はBayesianGaussianMixtureの設定オプション
type Option func(*BayesianGaussianMixture)

// WithNComponents は混合成分数 k を設定
func WithNComponents(k int) Option {
	return func(g *BayesianGaussianMixture) {
		g.nComponents = k
	}
}

// WithCovarianceType は共分散の種類 ("diag" または "full") を設定
func WithCovarianceType(covarianceType string) Option {
	return func(g *BayesianGaussianMixture) {
		g.covarianceType = covarianceType
	}
}

// WithMaxIter はEMの最大イテレーション数を設定
func WithMaxIter(maxIter int) Option {
	return func(g *BayesianGaussianMixture) {
		g.maxIter = maxIter
	}
}

// WithTol は対数尤度の変化量による収束判定の許容誤差を設定
func WithTol(tol float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.tol = tol
	}
}

// WithVarianceFloor は分散の下限を設定
func WithVarianceFloor(floor float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.varianceFloor = floor
	}
}

// WithWeightPrior は混合比のディリクレ型加算事前分布 α を設定
func WithWeightPrior(alpha float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.weightPrior = alpha
	}
}

// WithMeanPriorStrength は平均の事前分布の強さ κ0 を設定
func WithMeanPriorStrength(kappa float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.meanPriorStrength = kappa
	}
}

// WithCovPriorScale は共分散の事前分布のスケールを設定
func WithCovPriorScale(scale float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.covPriorScale = scale
	}
}

// WithCovPriorDf は共分散の事前分布の追加自由度を設定
func WithCovPriorDf(df float64) Option {
	return func(g *BayesianGaussianMixture) {
		g.covPriorDf = df
	}
}

// WithRandomState は乱数シードを設定（負の値は時刻から生成）
func WithRandomState(seed int64) Option {
	return func(g *BayesianGaussianMixture) {
		g.randomState = seed
	}
}

// WithInitParams は初期化方法を設定
func WithInitParams(init string) Option {
	return func(g *BayesianGaussianMixture) {
		g.initParams = init
	}
}

// WithLogger はロガーを設定
func WithLogger(logger log.Logger) Option {
	return func(g *BayesianGaussianMixture) {
		g.logger = logger
	}
}

// WithRecorder はテレメトリの記録先を設定
func WithRecorder(r telemetry.Recorder) Option {
	return func(g *BayesianGaussianMixture) {
		g.recorder = r
	}
}
