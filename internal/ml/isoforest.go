package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// defaultSubsample is the per-tree subsample size.
const defaultSubsample = 256

// fitSeed keeps forests reproducible: the same training matrix always
// yields the same trees and the same verdicts.
const fitSeed = 42

// IsolationForest is an ensemble of random isolation trees. Points that
// isolate in few splits score close to 1 and are outliers; points deep in
// the bulk of the distribution score near 0.5 or below.
type IsolationForest struct {
	Trees         []*IsoNode `json:"trees"`
	SubsampleSize int        `json:"subsample_size"`
	// Threshold is the score above which a point is predicted an outlier,
	// calibrated from the contamination rate at fit time.
	Threshold float64 `json:"threshold"`
}

// IsoNode is a node of an isolation tree. Leaves have nil children and
// carry the number of training samples that reached them.
type IsoNode struct {
	Left         *IsoNode `json:"left,omitempty"`
	Right        *IsoNode `json:"right,omitempty"`
	SplitValue   float64  `json:"split_value"`
	SplitFeature int      `json:"split_feature"`
	Size         int      `json:"size"`
	Depth        int      `json:"depth"`
}

// FitIsolationForest builds numTrees isolation trees on the matrix and
// calibrates the outlier threshold so that roughly contamination of the
// training points are predicted outliers.
func FitIsolationForest(matrix [][]float64, numTrees int, contamination float64) (*IsolationForest, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("cannot fit isolation forest on empty matrix")
	}
	if numTrees <= 0 {
		return nil, fmt.Errorf("invalid tree count %d", numTrees)
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, fmt.Errorf("contamination %v out of range (0, 0.5)", contamination)
	}

	subsample := defaultSubsample
	if len(matrix) < subsample {
		subsample = len(matrix)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample)))) + 1

	rng := rand.New(rand.NewSource(fitSeed))
	features := len(matrix[0])

	forest := &IsolationForest{
		Trees:         make([]*IsoNode, numTrees),
		SubsampleSize: subsample,
	}

	for i := 0; i < numTrees; i++ {
		sample := sampleRows(matrix, subsample, rng)
		forest.Trees[i] = buildIsoTree(sample, 0, maxDepth, features, rng)
	}

	// Calibrate the threshold at the (1 - contamination) quantile of the
	// training scores.
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		scores[i] = forest.Score(row)
	}
	sort.Float64s(scores)
	forest.Threshold = stat.Quantile(1-contamination, stat.Empirical, scores, nil)

	return forest, nil
}

// Score returns the anomaly score s = 2^(-E[h(x)]/c(n)) in (0, 1).
// Higher scores mean shorter isolation paths, i.e. more anomalous points.
func (f *IsolationForest) Score(vector []float64) float64 {
	total := 0.0
	for _, tree := range f.Trees {
		total += pathLength(tree, vector)
	}
	avg := total / float64(len(f.Trees))

	c := averagePathLength(float64(f.SubsampleSize))
	if c < 1e-10 {
		c = 1
	}
	return math.Pow(2, -avg/c)
}

// Predict returns -1 if the point is an outlier, 1 otherwise.
func (f *IsolationForest) Predict(vector []float64) int {
	if f.Score(vector) > f.Threshold {
		return -1
	}
	return 1
}

func sampleRows(matrix [][]float64, n int, rng *rand.Rand) [][]float64 {
	if n >= len(matrix) {
		return matrix
	}
	sample := make([][]float64, n)
	for i, idx := range rng.Perm(len(matrix))[:n] {
		sample[i] = matrix[idx]
	}
	return sample
}

func buildIsoTree(data [][]float64, depth, maxDepth, features int, rng *rand.Rand) *IsoNode {
	node := &IsoNode{Size: len(data), Depth: depth}
	if len(data) <= 1 || depth >= maxDepth {
		return node
	}

	// Pick a feature with spread; give up after a few attempts when the
	// remaining points are identical.
	var minVal, maxVal float64
	feature := -1
	for attempt := 0; attempt < features; attempt++ {
		candidate := rng.Intn(features)
		lo, hi := data[0][candidate], data[0][candidate]
		for _, row := range data[1:] {
			if row[candidate] < lo {
				lo = row[candidate]
			}
			if row[candidate] > hi {
				hi = row[candidate]
			}
		}
		if hi > lo {
			feature, minVal, maxVal = candidate, lo, hi
			break
		}
	}
	if feature < 0 {
		return node
	}

	node.SplitFeature = feature
	node.SplitValue = minVal + rng.Float64()*(maxVal-minVal)

	left := make([][]float64, 0, len(data)/2)
	right := make([][]float64, 0, len(data)/2)
	for _, row := range data {
		if row[feature] < node.SplitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	if len(left) > 0 {
		node.Left = buildIsoTree(left, depth+1, maxDepth, features, rng)
	}
	if len(right) > 0 {
		node.Right = buildIsoTree(right, depth+1, maxDepth, features, rng)
	}
	return node
}

func pathLength(node *IsoNode, vector []float64) float64 {
	if node == nil {
		return 0
	}

	if node.Left == nil && node.Right == nil {
		// Unresolved leaf: add the expected path length for its size.
		return float64(node.Depth) + averagePathLength(float64(node.Size))
	}

	if vector[node.SplitFeature] < node.SplitValue {
		if node.Left != nil {
			return pathLength(node.Left, vector)
		}
	} else if node.Right != nil {
		return pathLength(node.Right, vector)
	}
	return float64(node.Depth)
}

// averagePathLength is c(n) = 2H(n-1) - 2(n-1)/n, the expected path
// length of an unsuccessful BST search over n points.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}
