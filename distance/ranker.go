// Package distance はターゲット行に対するソース行の近さの順位付けを提供します。
package distance

import (
	"sort"

	"github.com/YuminosukeSato/scimix/core/linalg"
	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
)

// Metric は距離の種類
type Metric string

const (
	// Euclidean はユークリッド距離（デフォルト）
	Euclidean Metric = "euclidean"
	// Cosine は 1 − コサイン類似度
	Cosine Metric = "cosine"
)

// Ranked はソース（または集約キー）とその距離の組
type Ranked struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Result は1つのターゲットに対する順位付けの結果
type Result struct {
	Target string `json:"target"`
	// Total は切り詰め前の候補数
	Total  int      `json:"total"`
	Metric Metric   `json:"metric"`
	Ranked []Ranked `json:"ranked"`
}

// Ranker は距離の順位付けを行う
type Ranker struct {
	aggregate bool
	topN      int
	metric    Metric
	logger    log.Logger
}

// Option はRankerの設定オプション
type Option func(*Ranker)

// WithAggregate は集約キーごとに最小距離でまとめるかを設定
func WithAggregate(aggregate bool) Option {
	return func(r *Ranker) {
		r.aggregate = aggregate
	}
}

// WithTopN は先頭 n 件に切り詰める（0 は切り詰めなし）
func WithTopN(n int) Option {
	return func(r *Ranker) {
		r.topN = n
	}
}

// WithMetric は距離の種類を設定
func WithMetric(m Metric) Option {
	return func(r *Ranker) {
		r.metric = m
	}
}

// WithLogger はロガーを設定
func WithLogger(logger log.Logger) Option {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// NewRanker は新しいRankerを作成
func NewRanker(options ...Option) *Ranker {
	r := &Ranker{metric: Euclidean}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("distance")
	}
	return r
}

// Rank はオプションを指定して1回だけ順位付けを行う
func Rank(target model.Row, sources []model.Row, options ...Option) (*Result, error) {
	return NewRanker(options...).Rank(target, sources)
}

// Rank はソース行をターゲットへの距離の昇順に並べる
// 同じ距離の場合は最初に現れた順序を保つ。
func (r *Ranker) Rank(target model.Row, sources []model.Row) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.NewValueError("Rank", "no source rows")
	}
	if r.topN < 0 {
		return nil, errors.NewValidationError("top_n", "must be >= 1", r.topN)
	}
	if err := errors.CheckNumericalStability("Rank.target", target.Vector, 0); err != nil {
		return nil, errors.Wrapf(err, "target %q", target.Name)
	}

	measure, err := r.measure()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(sources))
	dists := make([]float64, len(sources))
	for i, s := range sources {
		if err := errors.CheckNumericalStability("Rank.source", s.Vector, i); err != nil {
			return nil, errors.Wrapf(err, "source %q", s.Name)
		}
		d, err := measure(target.Vector, s.Vector)
		if err != nil {
			return nil, errors.Wrapf(err, "source %q", s.Name)
		}
		names[i] = s.Name
		dists[i] = d
	}

	if r.aggregate {
		names, dists = model.AggregateMin(names, dists)
	}

	ranked := make([]Ranked, len(names))
	for i := range names {
		ranked[i] = Ranked{Name: names[i], Distance: dists[i]}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Distance < ranked[b].Distance
	})

	total := len(ranked)
	if r.topN > 0 && r.topN < total {
		ranked = ranked[:r.topN]
	}

	r.logger.Debug("Rank finished",
		log.OperationKey, log.OperationRank,
		log.TargetNameKey, target.Name,
		log.SamplesKey, len(sources),
		"shown", len(ranked),
	)

	return &Result{Target: target.Name, Total: total, Metric: r.metric, Ranked: ranked}, nil
}

func (r *Ranker) measure() (func(a, b []float64) (float64, error), error) {
	switch r.metric {
	case Euclidean, "":
		return linalg.Euclidean, nil
	case Cosine:
		return func(a, b []float64) (float64, error) {
			s, err := linalg.CosineSimilarity(a, b)
			if err != nil {
				return 0, err
			}
			return 1 - s, nil
		}, nil
	default:
		return nil, errors.NewValidationError("metric", "must be euclidean or cosine", string(r.metric))
	}
}
