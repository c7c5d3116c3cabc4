package ml

import (
	"math/rand"
	"sort"

	"topowave/domain/core"
)

// Split holds the result of a train/test partition.
type Split struct {
	XTrain [][]float64
	XTest  [][]float64
	YTrain []float64
	YTest  []float64
}

// StratifiedIndices partitions sample indices into train and test sets
// while preserving the class balance of y. Assignment is shuffled with
// the given RNG, so identical seeds yield identical partitions.
func StratifiedIndices(y []float64, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if len(y) < 2 {
		return nil, nil, core.ErrInsufficientData
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, core.NewValidationError("test_fraction", "must be in (0, 1)")
	}

	byClass := make(map[float64][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]float64, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	// Map order is not deterministic; the seeded shuffle must see the
	// classes in a fixed order.
	sort.Float64s(classes)

	for _, label := range classes {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testFraction)
		// Keep at least one sample of each class on each side when
		// the class has more than one member.
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		return nil, nil, core.ErrInsufficientData
	}

	// Interleave classes rather than leaving them grouped.
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

// StratifiedSplit partitions samples into train and test sets while
// preserving the class balance of y.
func StratifiedSplit(X [][]float64, y []float64, testFraction float64, rng *rand.Rand) (*Split, error) {
	if len(X) != len(y) {
		return nil, core.ErrShapeMismatch
	}
	train, test, err := StratifiedIndices(y, testFraction, rng)
	if err != nil {
		return nil, err
	}

	split := &Split{
		XTrain: make([][]float64, len(train)),
		YTrain: make([]float64, len(train)),
		XTest:  make([][]float64, len(test)),
		YTest:  make([]float64, len(test)),
	}
	for k, idx := range train {
		split.XTrain[k] = X[idx]
		split.YTrain[k] = y[idx]
	}
	for k, idx := range test {
		split.XTest[k] = X[idx]
		split.YTest[k] = y[idx]
	}
	return split, nil
}
