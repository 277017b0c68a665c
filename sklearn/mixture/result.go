package mixture

import (
	"sort"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Component は1つの混合成分のパラメータ
type Component struct {
	Weight float64   `json:"weight"`
	Mean   []float64 `json:"mean"`
	// Variance はdiag共分散の分散ベクトル
	Variance []float64 `json:"variance,omitempty"`
	// Covariance はfull共分散の行列
	Covariance [][]float64 `json:"covariance,omitempty"`
}

// PriorSettings はフィットに使った事前分布の設定
type PriorSettings struct {
	WeightPrior       float64 `json:"weight_prior"`
	MeanPriorStrength float64 `json:"mean_prior_strength"`
	CovPriorScale     float64 `json:"cov_prior_scale"`
	CovPriorDf        float64 `json:"cov_prior_df"`
}

// Result は学習済みモデルの内容を表示層に渡すための構造体
type Result struct {
	K                int           `json:"k"`
	CovarianceType   string        `json:"covariance_type"`
	Labels           []int         `json:"labels"`
	Responsibilities [][]float64   `json:"responsibilities"`
	Components       []Component   `json:"components"`
	LogLikelihood    float64       `json:"log_likelihood"`
	BIC              float64       `json:"bic"`
	AIC              float64       `json:"aic"`
	Converged        bool          `json:"converged"`
	Iterations       int           `json:"iterations"`
	History          []float64     `json:"log_likelihood_history"`
	Priors           PriorSettings `json:"priors"`
	RunID            string        `json:"run_id"`
}

// Result は学習済みのパラメータと診断情報をまとめて返す
func (g *BayesianGaussianMixture) Result() (*Result, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.CheckFitted(modelName, "Result"); err != nil {
		return nil, err
	}

	k := len(g.params_.weights)
	res := &Result{
		K:                k,
		CovarianceType:   g.covarianceType,
		Labels:           append([]int(nil), g.labels_...),
		Responsibilities: denseRows(g.responsibilities_),
		Components:       make([]Component, k),
		LogLikelihood:    g.logLikelihood_,
		BIC:              g.bic_,
		AIC:              g.aic_,
		Converged:        g.converged_,
		Iterations:       g.nIter_,
		History:          append([]float64(nil), g.history_...),
		Priors: PriorSettings{
			WeightPrior:       g.priors_.weightPrior,
			MeanPriorStrength: g.priors_.meanPriorStrength,
			CovPriorScale:     g.covPriorScale,
			CovPriorDf:        g.covPriorDf,
		},
		RunID: g.runID_,
	}
	for c := 0; c < k; c++ {
		comp := Component{
			Weight: g.params_.weights[c],
			Mean:   append([]float64(nil), g.params_.means[c]...),
		}
		if g.covarianceType == CovarianceFull {
			comp.Covariance = denseRows(g.params_.covariances[c])
		} else {
			comp.Variance = append([]float64(nil), g.params_.variances[c]...)
		}
		res.Components[c] = comp
	}
	return res, nil
}

func denseRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

// Summary は負担率行列の要約
type Summary struct {
	// Names は各サンプルの名前（任意）
	Names  []string `json:"names,omitempty"`
	Labels []int    `json:"labels"`
	// Average は各成分の平均負担率
	Average []float64 `json:"average"`
	// ColumnOrder は平均負担率の降順に並べた成分番号
	ColumnOrder []int `json:"column_order"`
	// DisplayLabels は各サンプルのラベルの ColumnOrder 上の位置（1始まり）
	DisplayLabels []int `json:"display_labels"`
	// MaxProb は各サンプルの割り当て先成分の負担率
	MaxProb []float64 `json:"max_prob"`
}

// NewSummary は負担率行列とラベルから要約を作成
// names が空でない場合はサンプル数と一致している必要がある。
func NewSummary(names []string, resp mat.Matrix, labels []int) (*Summary, error) {
	n, k := resp.Dims()
	if len(labels) != n {
		return nil, errors.NewDimensionError("NewSummary", n, len(labels), 0)
	}
	if len(names) > 0 && len(names) != n {
		return nil, errors.NewDimensionError("NewSummary", n, len(names), 0)
	}

	s := &Summary{
		Names:         append([]string(nil), names...),
		Labels:        append([]int(nil), labels...),
		Average:       make([]float64, k),
		ColumnOrder:   make([]int, k),
		DisplayLabels: make([]int, n),
		MaxProb:       make([]float64, n),
	}

	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			s.Average[c] += resp.At(i, c)
		}
	}
	for c := range s.Average {
		s.Average[c] /= float64(n)
		s.ColumnOrder[c] = c
	}
	sort.SliceStable(s.ColumnOrder, func(a, b int) bool {
		return s.Average[s.ColumnOrder[a]] > s.Average[s.ColumnOrder[b]]
	})

	position := make([]int, k)
	for pos, c := range s.ColumnOrder {
		position[c] = pos + 1
	}
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, errors.NewValidationError("labels", "component index out of range", l)
		}
		s.MaxProb[i] = resp.At(i, l)
		s.DisplayLabels[i] = position[l]
	}
	return s, nil
}

// Summary は学習データの要約を返す
func (g *BayesianGaussianMixture) Summary(names []string) (*Summary, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.CheckFitted(modelName, "Summary"); err != nil {
		return nil, err
	}
	return NewSummary(names, g.responsibilities_, g.labels_)
}
