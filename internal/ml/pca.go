package ml

import (
	"topowave/domain/core"

	"gonum.org/v1/gonum/mat"
)

// PCA projects samples onto the leading principal components of the
// training data, computed with a thin SVD of the centered matrix.
type PCA struct {
	NComponents int

	means      []float64
	components *mat.Dense // d x k, columns are principal axes
	variance   []float64  // explained variance per component
	totalVar   float64
}

// NewPCA creates an unfitted projector onto nComponents axes.
func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

func (p *PCA) Name() string { return "pca" }

// Fit computes the principal axes of X.
func (p *PCA) Fit(X [][]float64) error {
	n := len(X)
	if n < 2 {
		return core.ErrInsufficientData
	}
	d := len(X[0])
	if p.NComponents < 1 || p.NComponents > d || p.NComponents > n {
		return core.NewValidationError("n_components",
			"must be between 1 and min(samples, features)")
	}

	p.means = make([]float64, d)
	for _, row := range X {
		if len(row) != d {
			return core.ErrShapeMismatch
		}
		for j, v := range row {
			p.means[j] += v
		}
	}
	for j := range p.means {
		p.means[j] /= float64(n)
	}

	centered := mat.NewDense(n, d, nil)
	for i, row := range X {
		for j, v := range row {
			centered.Set(i, j, v-p.means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return core.ErrInsufficientData
	}

	var v mat.Dense
	svd.VTo(&v)
	singular := svd.Values(nil)

	p.components = mat.NewDense(d, p.NComponents, nil)
	for j := 0; j < p.NComponents; j++ {
		for i := 0; i < d; i++ {
			p.components.Set(i, j, v.At(i, j))
		}
	}

	p.variance = make([]float64, p.NComponents)
	p.totalVar = 0
	for i, s := range singular {
		ev := s * s / float64(n-1)
		p.totalVar += ev
		if i < p.NComponents {
			p.variance[i] = ev
		}
	}
	return nil
}

// Transform projects rows onto the fitted components.
func (p *PCA) Transform(X [][]float64) ([][]float64, error) {
	if p.components == nil {
		return nil, core.ErrNotFitted
	}
	d := len(p.means)
	out := make([][]float64, len(X))
	row := make([]float64, d)
	for i, sample := range X {
		if len(sample) != d {
			return nil, core.ErrShapeMismatch
		}
		for j, v := range sample {
			row[j] = v - p.means[j]
		}
		projected := make([]float64, p.NComponents)
		for k := 0; k < p.NComponents; k++ {
			sum := 0.0
			for j := 0; j < d; j++ {
				sum += row[j] * p.components.At(j, k)
			}
			projected[k] = sum
		}
		out[i] = projected
	}
	return out, nil
}

// ExplainedVarianceRatio returns the fraction of total variance carried
// by each retained component.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	if p.components == nil || p.totalVar == 0 {
		return nil
	}
	ratios := make([]float64, len(p.variance))
	for i, v := range p.variance {
		ratios[i] = v / p.totalVar
	}
	return ratios
}
