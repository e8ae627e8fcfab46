// Package preprocessing は距離計算の前に特徴量のスケールを揃えるスケーラーを提供する。
// 萼片の長さのように値域の広い特徴量が距離を支配しないようにするために使う。
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/irisknn/core/model"
	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// VectorScaler は行列で学習し、単一のベクトルを変換できるスケーラー
type VectorScaler interface {
	Fit(X mat.Matrix) error
	// TransformVector は x を変換した新しいスライスを返す
	TransformVector(x []float64) ([]float64, error)
	String() string
}

// StandardScaler はデータを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の母標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler()
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if math.Abs(std) < 1e-8 {
			std = 1.0
		}
		s.Scale[j] = std
	}

	s.SetFitted()
	return nil
}

// TransformVector は1サンプルを標準化する
func (s *StandardScaler) TransformVector(x []float64) ([]float64, error) {
	if err := s.check("StandardScaler.TransformVector", len(x)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return transformRows(X, s.TransformVector)
}

func (s *StandardScaler) check(op string, nFeatures int) error {
	if !s.IsFitted() {
		return errors.NewConfigurationError(op, "scaler is not fitted")
	}
	if nFeatures != s.NFeatures {
		return errors.NewValidationError("n_features", fmt.Sprintf("expected %d features", s.NFeatures), nFeatures)
	}
	return nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	return "standard"
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin, DataMax は学習データの最小値・最大値
	DataMin []float64
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)
	Scale []float64

	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

// NewMinMaxScalerDefault は[0,1]範囲のMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MinMaxScaler.Fit")
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		// 定数特徴量の場合、スケールを1に設定
		m.Scale[j] = hi - lo
		if math.Abs(m.Scale[j]) < 1e-8 {
			m.Scale[j] = 1.0
		}
	}

	m.SetFitted()
	return nil
}

// TransformVector は1サンプルをスケーリングする
// 学習データの範囲外の値は範囲外のままになる（クリップしない）
func (m *MinMaxScaler) TransformVector(x []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewConfigurationError("MinMaxScaler.TransformVector", "scaler is not fitted")
	}
	if len(x) != m.NFeatures {
		return nil, errors.NewValidationError("n_features", fmt.Sprintf("expected %d features", m.NFeatures), len(x))
	}

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = errors.SafeDivide(v-m.DataMin[j], m.Scale[j])*featureRange + m.FeatureRange[0]
	}
	return out, nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return transformRows(X, m.TransformVector)
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return "minmax"
}

func transformRows(X mat.Matrix, fn func([]float64) ([]float64, error)) (mat.Matrix, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Transform")
	}
	result := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		scaled, err := fn(row)
		if err != nil {
			return nil, err
		}
		result.SetRow(i, scaled)
	}
	return result, nil
}
