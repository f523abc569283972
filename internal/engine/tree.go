package engine

import (
	"sort"
)

// treeNode is one node of a variance-reduction regression tree. Internal
// nodes route on features[featureIndex] <= threshold; leaves carry the mean
// label of the training subset that reached them.
type treeNode struct {
	featureIndex int
	threshold    float64
	left         *treeNode
	right        *treeNode
	leaf         bool
	value        float64
}

type sample struct {
	features []float64
	label    float64
}

// buildTree recursively partitions data and returns the subtree together
// with the importance credit earned by each feature, keyed by feature index.
// Returning the deltas instead of mutating shared accumulators keeps each
// tree's build independently testable; the ensemble folds them in afterwards.
func buildTree(data []sample, depth, maxDepth, minSamples int) (*treeNode, map[int]float64) {
	importance := make(map[int]float64)

	if depth >= maxDepth || len(data) < minSamples {
		return &treeNode{leaf: true, value: meanLabel(data)}, importance
	}

	featureIdx, threshold, gain, ok := bestSplit(data)
	if !ok {
		return &treeNode{leaf: true, value: meanLabel(data)}, importance
	}

	var left, right []sample
	for _, s := range data {
		if s.features[featureIdx] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	importance[featureIdx] += gain

	leftNode, leftImp := buildTree(left, depth+1, maxDepth, minSamples)
	rightNode, rightImp := buildTree(right, depth+1, maxDepth, minSamples)
	for idx, g := range leftImp {
		importance[idx] += g
	}
	for idx, g := range rightImp {
		importance[idx] += g
	}

	return &treeNode{
		featureIndex: featureIdx,
		threshold:    threshold,
		left:         leftNode,
		right:        rightNode,
	}, importance
}

// bestSplit scans midpoints between sorted distinct values of every feature
// and scores each candidate with the gain proxy 1/(1+weightedVariance). A
// split only wins if it beats leaving the subset unsplit.
func bestSplit(data []sample) (featureIdx int, threshold, gain float64, ok bool) {
	if len(data) < 2 {
		return 0, 0, 0, false
	}

	baseGain := 1.0 / (1.0 + labelVariance(data))
	bestGain := baseGain

	numFeatures := len(data[0].features)
	for fi := 0; fi < numFeatures; fi++ {
		values := distinctValues(data, fi)
		for i := 0; i+1 < len(values); i++ {
			candidate := (values[i] + values[i+1]) / 2

			var left, right []sample
			for _, s := range data {
				if s.features[fi] <= candidate {
					left = append(left, s)
				} else {
					right = append(right, s)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			total := float64(len(data))
			weighted := labelVariance(left)*float64(len(left))/total +
				labelVariance(right)*float64(len(right))/total
			g := 1.0 / (1.0 + weighted)
			if g > bestGain {
				bestGain = g
				featureIdx = fi
				threshold = candidate
				ok = true
			}
		}
	}

	return featureIdx, threshold, bestGain, ok
}

func (n *treeNode) predict(features []float64) float64 {
	node := n
	for !node.leaf {
		if features[node.featureIndex] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanLabel(data []sample) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, s := range data {
		sum += s.label
	}
	return sum / float64(len(data))
}

// labelVariance is the population variance of the subset's labels.
func labelVariance(data []sample) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := meanLabel(data)
	var sum float64
	for _, s := range data {
		d := s.label - mean
		sum += d * d
	}
	return sum / float64(len(data))
}

func distinctValues(data []sample, featureIdx int) []float64 {
	seen := make(map[float64]bool, len(data))
	values := make([]float64, 0, len(data))
	for _, s := range data {
		v := s.features[featureIdx]
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	return values
}
