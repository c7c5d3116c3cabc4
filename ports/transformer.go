package ports

// Transformer is the fit/transform contract shared by every pipeline
// stage. Fit learns state from training batches; Transform applies the
// fitted state to new batches. Implementations must return
// core.ErrNotFitted from Transform when Fit has not run.
type Transformer interface {
	// Name identifies the stage in pipelines and logs
	Name() string

	// Fit learns stage parameters from a batch of samples
	Fit(X [][]float64) error

	// Transform applies the fitted stage to a batch of samples
	Transform(X [][]float64) ([][]float64, error)
}

// FitTransform fits a transformer and immediately transforms the same batch.
func FitTransform(t Transformer, X [][]float64) ([][]float64, error) {
	if err := t.Fit(X); err != nil {
		return nil, err
	}
	return t.Transform(X)
}
