package ml

import (
	"math"
	"math/rand"
	"testing"

	"topowave/domain/core"
	"topowave/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScalerZeroMeanUnitVariance(t *testing.T) {
	X := [][]float64{{1, 100}, {2, 200}, {3, 300}, {4, 400}}

	out, err := ports.FitTransform(NewStandardScaler(), X)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		mean, variance := 0.0, 0.0
		for _, row := range out {
			mean += row[j]
		}
		mean /= float64(len(out))
		for _, row := range out {
			variance += (row[j] - mean) * (row[j] - mean)
		}
		variance /= float64(len(out))
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, variance, 1e-9)
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	s := NewStandardScaler()
	require.NoError(t, s.Fit(X))
	out, err := s.Transform(X)
	require.NoError(t, err)
	for _, row := range out {
		assert.Zero(t, row[0])
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	_, err := NewStandardScaler().Transform([][]float64{{1}})
	assert.ErrorIs(t, err, core.ErrNotFitted)
}

func TestPCARecoversDominantDirection(t *testing.T) {
	// Points spread along the diagonal with small orthogonal jitter:
	// the first component must align with (1,1)/sqrt(2).
	rng := rand.New(rand.NewSource(1))
	X := make([][]float64, 200)
	for i := range X {
		tt := rng.NormFloat64() * 10
		jitter := rng.NormFloat64() * 0.1
		X[i] = []float64{tt + jitter, tt - jitter}
	}

	p := NewPCA(1)
	require.NoError(t, p.Fit(X))

	ratios := p.ExplainedVarianceRatio()
	require.Len(t, ratios, 1)
	assert.Greater(t, ratios[0], 0.99)

	out, err := p.Transform(X)
	require.NoError(t, err)
	require.Len(t, out, len(X))
	require.Len(t, out[0], 1)

	// Projection preserves the diagonal coordinate up to sign.
	corr := 0.0
	for i, row := range X {
		corr += out[i][0] * (row[0] + row[1])
	}
	assert.Greater(t, math.Abs(corr), 0.0)
}

func TestPCAInvalidComponents(t *testing.T) {
	X := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	assert.Error(t, NewPCA(0).Fit(X))
	assert.Error(t, NewPCA(3).Fit(X))
	assert.ErrorIs(t, NewPCA(1).Fit([][]float64{{1}}), core.ErrInsufficientData)
}

func TestPCANotFitted(t *testing.T) {
	_, err := NewPCA(2).Transform([][]float64{{1, 2}})
	assert.ErrorIs(t, err, core.ErrNotFitted)
}

func separableData(rng *rand.Rand, n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		if i%2 == 0 {
			X[i] = []float64{rng.NormFloat64() + 3, rng.NormFloat64() + 3}
			y[i] = 1
		} else {
			X[i] = []float64{rng.NormFloat64() - 3, rng.NormFloat64() - 3}
		}
	}
	return X, y
}

func TestLogisticRegressionSeparable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	X, y := separableData(rng, 200)

	m := NewLogisticRegression(0.1, 200, 32, rng)
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	acc, err := Accuracy(y, pred)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.95)
}

func TestLogisticRegressionDeterministicUnderSeed(t *testing.T) {
	X, y := separableData(rand.New(rand.NewSource(7)), 100)

	a := NewLogisticRegression(0.05, 50, 16, rand.New(rand.NewSource(42)))
	require.NoError(t, a.Fit(X, y))
	b := NewLogisticRegression(0.05, 50, 16, rand.New(rand.NewSource(42)))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	m := NewLogisticRegression(0.1, 10, 8, rand.New(rand.NewSource(1)))
	_, err := m.PredictProba([][]float64{{1, 2}})
	assert.ErrorIs(t, err, core.ErrNotFitted)
}

func TestStratifiedSplitPreservesBalance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X := make([][]float64, 100)
	y := make([]float64, 100)
	for i := range X {
		X[i] = []float64{float64(i)}
		if i < 30 {
			y[i] = 1
		}
	}

	split, err := StratifiedSplit(X, y, 0.2, rng)
	require.NoError(t, err)

	assert.Len(t, split.XTest, 20)
	assert.Len(t, split.XTrain, 80)

	testPos := 0
	for _, label := range split.YTest {
		if label == 1 {
			testPos++
		}
	}
	assert.Equal(t, 6, testPos, "class balance should survive stratification")

	// No sample on both sides.
	seen := make(map[float64]bool)
	for _, row := range split.XTrain {
		seen[row[0]] = true
	}
	for _, row := range split.XTest {
		assert.False(t, seen[row[0]], "sample leaked across the split")
	}
}

func TestStratifiedSplitDeterministicUnderSeed(t *testing.T) {
	X := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i % 2)
	}

	a, err := StratifiedSplit(X, y, 0.25, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := StratifiedSplit(X, y, 0.25, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assert.Equal(t, a.XTest, b.XTest)
	assert.Equal(t, a.YTrain, b.YTrain)
}

func TestStratifiedSplitInvalidFraction(t *testing.T) {
	X := [][]float64{{1}, {2}}
	y := []float64{0, 1}
	_, err := StratifiedSplit(X, y, 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
	_, err = StratifiedSplit(X, y, 1, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]float64{1, 0, 1, 1}, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy([]float64{1}, []float64{1, 0})
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestROCAUCPerfectRanking(t *testing.T) {
	auc, err := ROCAUC([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, auc, 1e-12)

	auc, err = ROCAUC([]float64{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, auc, 1e-12)
}

func TestROCAUCTiesAndChance(t *testing.T) {
	// Constant scores carry no information: AUC = 0.5 via average ranks.
	auc, err := ROCAUC([]float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, auc, 1e-12)
}

func TestROCAUCSingleClass(t *testing.T) {
	_, err := ROCAUC([]float64{1, 1}, []float64{0.2, 0.9})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestConfusion(t *testing.T) {
	c, err := Confusion([]float64{1, 0, 1, 0}, []float64{1, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, ConfusionCounts{
		TruePositives:  1,
		TrueNegatives:  1,
		FalsePositives: 1,
		FalseNegatives: 1,
	}, c)
}
