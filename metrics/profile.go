// Package metrics はプロファイルの当てはまりとモデル選択の情報量規準を計算します。
package metrics

import (
	"math"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

func checkProfiles(op string, target, fitted []float64) error {
	if len(target) == 0 {
		return errors.NewValueError(op, "empty profile")
	}
	if len(fitted) != len(target) {
		return errors.NewDimensionError(op, len(target), len(fitted), 1)
	}
	return nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(target, fitted []float64) (float64, error) {
	if err := checkProfiles("MSE", target, fitted); err != nil {
		return 0, err
	}

	// MSE = (1/D) * Σ(target - fitted)²
	var sum float64
	for i := range target {
		diff := target[i] - fitted[i]
		sum += diff * diff
	}
	return sum / float64(len(target)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(target, fitted []float64) (float64, error) {
	mse, err := MSE(target, fitted)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(target, fitted []float64) (float64, error) {
	if err := checkProfiles("MAE", target, fitted); err != nil {
		return 0, err
	}

	var sum float64
	for i := range target {
		sum += math.Abs(target[i] - fitted[i])
	}
	return sum / float64(len(target)), nil
}

// R2Score は決定係数（R²）を計算する
// ターゲットの全成分が同じ値の場合は定義できないためエラーを返す。
func R2Score(target, fitted []float64) (float64, error) {
	if err := checkProfiles("R2Score", target, fitted); err != nil {
		return 0, err
	}

	mean := stat.Mean(target, nil)
	var tss, rss float64
	for i := range target {
		tss += (target[i] - mean) * (target[i] - mean)
		rss += (target[i] - fitted[i]) * (target[i] - fitted[i])
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in target)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}
