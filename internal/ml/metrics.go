package ml

import (
	"sort"

	"topowave/domain/core"
)

// Accuracy is the fraction of exact label matches.
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, core.ErrShapeMismatch
	}
	if len(yTrue) == 0 {
		return 0, core.ErrInsufficientData
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ROCAUC computes the area under the ROC curve from probability scores
// using the rank statistic U/(n_pos * n_neg), with average ranks for
// tied scores. Requires both classes to be present.
func ROCAUC(yTrue, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, core.ErrShapeMismatch
	}
	n := len(yTrue)
	if n == 0 {
		return 0, core.ErrInsufficientData
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return scores[order[i]] < scores[order[j]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		// Tied scores share the average rank of their block.
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	positives, rankSum := 0, 0.0
	for i, label := range yTrue {
		if label == 1 {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := n - positives
	if positives == 0 || negatives == 0 {
		return 0, core.ErrInsufficientData
	}

	u := rankSum - float64(positives)*float64(positives+1)/2.0
	return u / (float64(positives) * float64(negatives)), nil
}

// ConfusionCounts tallies binary prediction outcomes.
type ConfusionCounts struct {
	TruePositives  int
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
}

// Confusion computes the binary confusion counts.
func Confusion(yTrue, yPred []float64) (ConfusionCounts, error) {
	if len(yTrue) != len(yPred) {
		return ConfusionCounts{}, core.ErrShapeMismatch
	}
	var c ConfusionCounts
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			c.TruePositives++
		case yTrue[i] == 0 && yPred[i] == 0:
			c.TrueNegatives++
		case yTrue[i] == 0 && yPred[i] == 1:
			c.FalsePositives++
		default:
			c.FalseNegatives++
		}
	}
	return c, nil
}
