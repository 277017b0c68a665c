package metrics

import (
	"math"

	"github.com/YuminosukeSato/scimix/pkg/errors"
)

// ParamCount はガウス混合モデルの自由パラメータ数を返す
//
//	平均: k·D
//	共分散: k·D(D+1)/2 (full) または k·D (diag)
//	混合比: k−1
func ParamCount(k, d int, covarianceType string) int {
	meanParams := k * d
	weightParams := k - 1
	if covarianceType == "full" {
		return meanParams + k*(d*(d+1)/2) + weightParams
	}
	return meanParams + k*d + weightParams
}

// BIC はベイズ情報量規準 −2·LL + p·ln N を計算する
func BIC(logLikelihood float64, params, nSamples int) (float64, error) {
	if nSamples <= 0 {
		return 0, errors.NewValueError("BIC", "number of samples must be positive")
	}
	return -2*logLikelihood + float64(params)*math.Log(float64(nSamples)), nil
}

// AIC は赤池情報量規準 −2·LL + 2p を計算する
func AIC(logLikelihood float64, params int) float64 {
	return -2*logLikelihood + 2*float64(params)
}
