package ml

import "math"

// NoiseLabel marks points that belong to no dense cluster.
const NoiseLabel = -1

// DBSCANParams holds the density-clustering configuration. DBSCAN does
// not generalize to unseen points, so the algorithm is re-run on each
// evaluation batch rather than persisted as a fitted object; only the
// parameters are stored with the model.
type DBSCANParams struct {
	Eps        float64 `json:"eps"`
	MinSamples int     `json:"min_samples"`
}

// FitPredict clusters the matrix and returns one label per row, with
// NoiseLabel for points outside every dense neighborhood. A batch smaller
// than MinSamples is therefore all noise, including the single-row batch
// used for real-time detection.
func (p DBSCANParams) FitPredict(matrix [][]float64) []int {
	const unvisited = -2

	labels := make([]int, len(matrix))
	for i := range labels {
		labels[i] = unvisited
	}

	cluster := 0
	for i := range matrix {
		if labels[i] != unvisited {
			continue
		}

		neighbors := p.regionQuery(matrix, i)
		if len(neighbors) < p.MinSamples {
			labels[i] = NoiseLabel
			continue
		}

		labels[i] = cluster

		// Expand the cluster over the seed set. Noise points reachable
		// from a core point become border members.
		for k := 0; k < len(neighbors); k++ {
			j := neighbors[k]
			if labels[j] == NoiseLabel {
				labels[j] = cluster
				continue
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster

			jNeighbors := p.regionQuery(matrix, j)
			if len(jNeighbors) >= p.MinSamples {
				neighbors = append(neighbors, jNeighbors...)
			}
		}
		cluster++
	}

	return labels
}

// regionQuery returns the indices within Eps of point i, including i.
func (p DBSCANParams) regionQuery(matrix [][]float64, i int) []int {
	var neighbors []int
	for j := range matrix {
		if euclidean(matrix[i], matrix[j]) <= p.Eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
