// Package cluster はガウス混合モデルの初期化に使うクラスタリングを提供します。
package cluster

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/YuminosukeSato/scimix/core/linalg"
	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	_ model.ContextFitter = (*MiniBatchKMeans)(nil)
	_ model.Predictor     = (*MiniBatchKMeans)(nil)
)

// MiniBatchKMeans はミニバッチK-meansクラスタリング
// scikit-learnのMiniBatchKMeansと同じ更新則を使う
type MiniBatchKMeans struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nClusters        int     // クラスタ数
	init             string  // 初期化方法: "k-means++", "random"
	maxIter          int     // 最大イテレーション数
	batchSize        int     // ミニバッチサイズ
	randomState      int64   // 乱数シード
	tol              float64 // 収束判定の許容誤差
	maxNoImprovement int     // 改善なしの最大イテレーション数
	nInit            int     // 異なる初期化での実行回数

	// 学習パラメータ
	clusterCenters_ [][]float64 // クラスタ中心（nClusters x nFeatures）
	labels_         []int       // 各サンプルのクラスタラベル
	inertia_        float64     // クラスタ内平方和誤差
	nIter_          int         // 実行されたイテレーション数

	// 内部状態
	mu         sync.RWMutex
	rng        *rand.Rand
	nFeatures_ int
}

// NewMiniBatchKMeans は新しいMiniBatchKMeansを作成
func NewMiniBatchKMeans(options ...KMeansOption) *MiniBatchKMeans {
	kmeans := &MiniBatchKMeans{
		nClusters:        8,
		init:             "k-means++",
		maxIter:          100,
		batchSize:        100,
		randomState:      -1,
		tol:              0.0,
		maxNoImprovement: 10,
		nInit:            3,
	}

	for _, opt := range options {
		opt(kmeans)
	}

	if kmeans.rng == nil {
		if kmeans.randomState >= 0 {
			kmeans.rng = rand.New(rand.NewSource(kmeans.randomState))
		} else {
			kmeans.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}

	return kmeans
}

// KMeansOption はMiniBatchKMeansの設定オプション
type KMeansOption func(*MiniBatchKMeans)

// WithKMeansNClusters はクラスタ数を設定
func WithKMeansNClusters(n int) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.nClusters = n
	}
}

// WithKMeansInit は初期化方法を設定
func WithKMeansInit(init string) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.init = init
	}
}

// WithKMeansMaxIter は最大イテレーション数を設定
func WithKMeansMaxIter(maxIter int) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.maxIter = maxIter
	}
}

// WithKMeansBatchSize はミニバッチサイズを設定
func WithKMeansBatchSize(batchSize int) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.batchSize = batchSize
	}
}

// WithKMeansRandomState は乱数シードを設定
func WithKMeansRandomState(seed int64) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.randomState = seed
		if seed >= 0 {
			kmeans.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithKMeansRand は呼び出し側の乱数生成器を共有する
// ガウス混合モデルの初期化で、モデル全体を1つの生成器で再現可能にするために使う。
func WithKMeansRand(rng *rand.Rand) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.rng = rng
	}
}

// WithKMeansTol は収束判定の許容誤差を設定
func WithKMeansTol(tol float64) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.tol = tol
	}
}

// WithKMeansNInit は初期化の試行回数を設定
func WithKMeansNInit(n int) KMeansOption {
	return func(kmeans *MiniBatchKMeans) {
		kmeans.nInit = n
	}
}

// Fit はバッチ学習でモデルを訓練
func (kmeans *MiniBatchKMeans) Fit(X mat.Matrix) error {
	return kmeans.FitContext(context.Background(), X)
}

// FitContext はキャンセル可能な学習を行う
// 各イテレーションの後に ctx を確認する。
func (kmeans *MiniBatchKMeans) FitContext(ctx context.Context, X mat.Matrix) error {
	kmeans.mu.Lock()
	defer kmeans.mu.Unlock()

	rows, cols := X.Dims()
	if rows < kmeans.nClusters {
		return errors.NewValidationError("n_clusters", "must not exceed the number of samples", kmeans.nClusters)
	}
	if kmeans.nClusters < 1 {
		return errors.NewValidationError("n_clusters", "must be >= 1", kmeans.nClusters)
	}
	kmeans.nFeatures_ = cols
	points := linalg.Rows(X)

	// 複数回実行して最良の結果を選択
	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestNIter int

	nInit := kmeans.nInit
	if nInit < 1 {
		nInit = 1
	}
	for run := 0; run < nInit; run++ {
		centers, inertia, nIter, err := kmeans.fitSingleRun(ctx, points)
		if err != nil {
			return err
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestNIter = nIter
		}
	}

	kmeans.clusterCenters_ = bestCenters
	kmeans.inertia_ = bestInertia
	kmeans.nIter_ = bestNIter
	kmeans.labels_ = make([]int, rows)
	for i, p := range points {
		kmeans.labels_[i] = nearestCenter(p, bestCenters)
	}

	kmeans.SetFitted()
	return nil
}

// fitSingleRun は単一回の学習を実行
func (kmeans *MiniBatchKMeans) fitSingleRun(ctx context.Context, points [][]float64) ([][]float64, float64, int, error) {
	centers := kmeans.initializeCenters(points)
	counts := make([]int, len(centers))

	prevInertia := math.Inf(1)
	noImprovementCount := 0
	finalIter := 0

	for iter := 0; iter < kmeans.maxIter; iter++ {
		finalIter = iter + 1

		// 各ミニバッチサンプルを最近傍クラスタに割り当て、中心を移動平均で更新
		for _, idx := range kmeans.selectMiniBatch(len(points)) {
			sample := points[idx]
			c := nearestCenter(sample, centers)
			counts[c]++
			eta := 1.0 / float64(counts[c])
			for j := range sample {
				centers[c][j] = (1-eta)*centers[c][j] + eta*sample[j]
			}
		}

		inertia := computeInertia(points, centers)
		if prevInertia-inertia < kmeans.tol {
			noImprovementCount++
			if noImprovementCount >= kmeans.maxNoImprovement {
				break
			}
		} else {
			noImprovementCount = 0
		}
		prevInertia = inertia

		if err := model.Checkpoint(ctx); err != nil {
			return nil, 0, 0, err
		}
	}

	return centers, computeInertia(points, centers), finalIter, nil
}

// Predict は各サンプルの最近傍クラスタを返す
func (kmeans *MiniBatchKMeans) Predict(X mat.Matrix) ([]int, error) {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if err := kmeans.CheckFitted("MiniBatchKMeans", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != kmeans.nFeatures_ {
		return nil, errors.NewDimensionError("MiniBatchKMeans.Predict", kmeans.nFeatures_, cols, 1)
	}

	labels := make([]int, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		labels[i] = nearestCenter(row, kmeans.clusterCenters_)
	}
	return labels, nil
}

// NIterations は実行された学習イテレーション数を返す
func (kmeans *MiniBatchKMeans) NIterations() int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.nIter_
}

// ClusterCenters は学習されたクラスタ中心を返す
func (kmeans *MiniBatchKMeans) ClusterCenters() [][]float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	centers := make([][]float64, len(kmeans.clusterCenters_))
	for i := range kmeans.clusterCenters_ {
		centers[i] = append([]float64(nil), kmeans.clusterCenters_[i]...)
	}
	return centers
}

// Labels は学習データのクラスタラベルを返す
func (kmeans *MiniBatchKMeans) Labels() []int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return append([]int(nil), kmeans.labels_...)
}

// Inertia は慣性（クラスタ内平方和誤差）を返す
func (kmeans *MiniBatchKMeans) Inertia() float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.inertia_
}

// initializeCenters はクラスタ中心を初期化
func (kmeans *MiniBatchKMeans) initializeCenters(points [][]float64) [][]float64 {
	if kmeans.init == "random" {
		centers := make([][]float64, kmeans.nClusters)
		for i := range centers {
			centers[i] = append([]float64(nil), points[kmeans.rng.Intn(len(points))]...)
		}
		return centers
	}
	return KMeansPlusPlus(points, kmeans.nClusters, kmeans.rng)
}

// KMeansPlusPlus はk-means++で k 個の初期中心を選ぶ
// 最初の中心は一様に選び、以降は最近傍中心までの二乗距離に比例した確率で選ぶ。
// 累積質量は r -= d_i を r <= 0 になるまで引いて走査する。
func KMeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.Intn(len(points))]...))

	distances := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centers {
				if d := squaredDistance(p, c); d < best {
					best = d
				}
			}
			distances[i] = best
			total += best
		}

		r := rng.Float64() * total
		idx := 0
		for i, d := range distances {
			r -= d
			if r <= 0 {
				idx = i
				break
			}
		}
		centers = append(centers, append([]float64(nil), points[idx]...))
	}
	return centers
}

// selectMiniBatch はミニバッチのサンプルインデックスを選択
func (kmeans *MiniBatchKMeans) selectMiniBatch(nSamples int) []int {
	batchSize := kmeans.batchSize
	if batchSize > nSamples || batchSize <= 0 {
		batchSize = nSamples
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	// Fisher-Yatesシャッフル
	for i := nSamples - 1; i > 0; i-- {
		j := kmeans.rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices[:batchSize]
}

// nearestCenter は最近傍クラスタを検索
func nearestCenter(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearest := 0
	for c, center := range centers {
		if d := squaredDistance(sample, center); d < minDist {
			minDist = d
			nearest = c
		}
	}
	return nearest
}

// computeInertia は慣性（クラスタ内平方和誤差）を計算
func computeInertia(points [][]float64, centers [][]float64) float64 {
	inertia := 0.0
	for _, p := range points {
		inertia += squaredDistance(p, centers[nearestCenter(p, centers)])
	}
	return inertia
}

func squaredDistance(a, b []float64) float64 {
	d, err := linalg.SquaredEuclidean(a, b)
	if err != nil {
		return math.Inf(1)
	}
	return d
}
