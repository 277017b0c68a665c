package model

import (
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MinDimensions はデータセットに必要な最小次元数
const MinDimensions = 2

// Row は名前付きの数値ベクトル（1サンプル）
type Row struct {
	Name   string    `json:"name"`
	Vector []float64 `json:"vector"`
}

// Dataset はソース行とターゲット行の組
// 全ての行は同じ次元 D (>= 2) を持ち、全成分が有限値である。
// 構築後は不変として扱う。
type Dataset struct {
	source []Row
	target []Row
	dim    int
}

// NewDataset は行を検証してDatasetを作成する
// 行ベクトルはコピーされるため、呼び出し側の変更は影響しない。
func NewDataset(source, target []Row) (*Dataset, error) {
	if len(source) == 0 {
		return nil, errors.NewModelError("NewDataset", "empty source set", errors.ErrEmptyData)
	}
	if len(target) == 0 {
		return nil, errors.NewModelError("NewDataset", "empty target set", errors.ErrEmptyData)
	}

	dim := len(source[0].Vector)
	if dim < MinDimensions {
		return nil, errors.NewValidationError("dimensions", "need at least 2 dimensions", dim)
	}

	src, err := copyRows("source", source, dim)
	if err != nil {
		return nil, err
	}
	tgt, err := copyRows("target", target, dim)
	if err != nil {
		return nil, err
	}

	return &Dataset{source: src, target: tgt, dim: dim}, nil
}

func copyRows(side string, rows []Row, dim int) ([]Row, error) {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if r.Name == "" {
			return nil, errors.NewValidationError(side+".name", "empty sample name", i)
		}
		if len(r.Vector) != dim {
			return nil, errors.NewDimensionError("NewDataset."+side, dim, len(r.Vector), 1)
		}
		if err := errors.CheckNumericalStability(side+"."+r.Name, r.Vector, i); err != nil {
			return nil, err
		}
		v := make([]float64, dim)
		copy(v, r.Vector)
		out[i] = Row{Name: r.Name, Vector: v}
	}
	return out, nil
}

// Dim は次元数 D を返す
func (d *Dataset) Dim() int { return d.dim }

// Source はソース行を返す（呼び出し側は変更しないこと）
func (d *Dataset) Source() []Row { return d.source }

// Target はターゲット行を返す（呼び出し側は変更しないこと）
func (d *Dataset) Target() []Row { return d.target }

// SourceNames はソース行の名前を挿入順で返す
func (d *Dataset) SourceNames() []string { return names(d.source) }

// TargetNames はターゲット行の名前を挿入順で返す
func (d *Dataset) TargetNames() []string { return names(d.target) }

// SourceVectors はソース行のベクトルを返す
func (d *Dataset) SourceVectors() [][]float64 { return vectors(d.source) }

// TargetVectors はターゲット行のベクトルを返す
func (d *Dataset) TargetVectors() [][]float64 { return vectors(d.target) }

// TargetIndex は名前が一致する最初のターゲット行の位置を返す
func (d *Dataset) TargetIndex(name string) (int, bool) {
	for i, r := range d.target {
		if r.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Pooled はソース行→ターゲット行の順に全行を積み上げた行列と表示名を返す
// 表示名は "<name> (source)" / "<name> (target)" の形式。
func (d *Dataset) Pooled() ([]string, *mat.Dense) {
	n := len(d.source) + len(d.target)
	labels := make([]string, 0, n)
	X := mat.NewDense(n, d.dim, nil)

	i := 0
	for _, r := range d.source {
		labels = append(labels, r.Name+" (source)")
		X.SetRow(i, r.Vector)
		i++
	}
	for _, r := range d.target {
		labels = append(labels, r.Name+" (target)")
		X.SetRow(i, r.Vector)
		i++
	}
	return labels, X
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func vectors(rows []Row) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Vector
	}
	return out
}
