package mixture

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
	"gonum.org/v1/gonum/mat"
)

// Candidate は成分数 k で学習したモデルの診断情報
type Candidate struct {
	K             int     `json:"k"`
	LogLikelihood float64 `json:"log_likelihood"`
	BIC           float64 `json:"bic"`
	AIC           float64 `json:"aic"`
	Converged     bool    `json:"converged"`
	Iterations    int     `json:"iterations"`
}

// Score は criterion に対応する値を返す
func (c Candidate) Score(criterion string) float64 {
	if criterion == CriterionAIC {
		return c.AIC
	}
	return c.BIC
}

// Selection はモデル選択の結果
type Selection struct {
	Criterion  string                   `json:"criterion"`
	BestK      int                      `json:"best_k"`
	Best       *BayesianGaussianMixture `json:"-"`
	Candidates []Candidate              `json:"candidates"`
}

// SelectModel は [minK, maxK] の各 k でモデルを学習し、criterion が最小のものを選ぶ
//
// minK > maxK の場合は入れ替え、maxK はサンプル数で打ち切る。同じ値の場合は小さい k を選ぶ。
// k ごとの学習の間にチェックポイントを置き、置き換えられたジョブは結果を返さない。
func SelectModel(ctx context.Context, X mat.Matrix, criterion string, minK, maxK int, options ...Option) (*Selection, error) {
	if criterion != CriterionAIC && criterion != CriterionBIC {
		return nil, errors.NewValidationError("criterion", "must be 'aic' or 'bic'", criterion)
	}
	if minK > maxK {
		minK, maxK = maxK, minK
	}
	n, _ := X.Dims()
	if minK < 1 {
		return nil, errors.NewValidationError("min_k", "must be >= 1", minK)
	}
	if minK > n {
		return nil, errors.NewValidationError("min_k", fmt.Sprintf("must not exceed the number of samples (%d)", n), minK)
	}
	if maxK > n {
		maxK = n
	}

	template := NewBayesianGaussianMixture(options...)
	logger := template.logger
	if job, ok := model.JobFromContext(ctx); ok {
		logger = logger.With(log.JobIDKey, job.ID)
	}
	start := time.Now()

	sel := &Selection{Criterion: criterion}
	bestScore := 0.0
	for k := minK; k <= maxK; k++ {
		opts := append(append([]Option(nil), options...), WithNComponents(k))
		m := NewBayesianGaussianMixture(opts...)
		if err := m.FitContext(ctx, X); err != nil {
			return nil, err
		}

		cand := Candidate{
			K:             k,
			LogLikelihood: m.LogLikelihood(),
			BIC:           m.BIC(),
			AIC:           m.AIC(),
			Converged:     m.Converged(),
			Iterations:    m.NIter(),
		}
		sel.Candidates = append(sel.Candidates, cand)
		if score := cand.Score(criterion); sel.Best == nil || score < bestScore {
			sel.Best, sel.BestK, bestScore = m, k, score
		}

		if err := model.Checkpoint(ctx); err != nil {
			if model.IsSuperseded(err) {
				template.recorder.IncSuperseded(telemetry.EngineGMM)
			}
			return nil, err
		}
	}

	logger.Info("SelectModel finished",
		log.OperationKey, log.OperationSelect,
		log.CriterionKey, criterion,
		log.ComponentsKey, sel.BestK,
		log.SamplesKey, n,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sel, nil
}
