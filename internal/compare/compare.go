// Package compare computes agreement metrics between two normalized
// package sets. Every function here is pure: no shared state, safe to call
// concurrently on disjoint inputs.
package compare

import (
	"github.com/sbomlab/sbomdiff/pkg/models"
)

// Side designates which input of a comparison is the ground truth.
type Side string

const (
	TruthNone Side = ""
	TruthA    Side = "a"
	TruthB    Side = "b"
)

// Compare computes strict and coarse set agreement between a and b. When
// truth designates one side, precision/recall/F1 are computed against it;
// metrics with a zero denominator come back nil, which callers must treat
// as "not computable" rather than zero.
func Compare(a, b *models.PackageSet, truth Side) models.ComparisonResult {
	result := models.ComparisonResult{
		SourceA:     a.Source(),
		SourceB:     b.Source(),
		GroundTruth: string(truth),
	}

	for _, r := range a.Records() {
		if b.Contains(r) {
			result.Intersection++
		} else {
			result.OnlyA++
			result.OnlyAPackages = append(result.OnlyAPackages, r)
		}
	}
	for _, r := range b.Records() {
		if !a.Contains(r) {
			result.OnlyB++
			result.OnlyBPackages = append(result.OnlyBPackages, r)
		}
	}
	result.Union = result.Intersection + result.OnlyA + result.OnlyB
	result.Jaccard = jaccard(result.Intersection, result.Union)

	coarseA, coarseB := a.CoarseKeys(), b.CoarseKeys()
	for key := range coarseA {
		if _, ok := coarseB[key]; ok {
			result.CoarseIntersection++
		} else {
			result.CoarseOnlyA++
		}
	}
	for key := range coarseB {
		if _, ok := coarseA[key]; !ok {
			result.CoarseOnlyB++
		}
	}
	result.CoarseUnion = result.CoarseIntersection + result.CoarseOnlyA + result.CoarseOnlyB
	result.CoarseJaccard = jaccard(result.CoarseIntersection, result.CoarseUnion)

	switch truth {
	case TruthA:
		result.Precision, result.Recall, result.F1 = accuracy(result.Intersection, a.Len(), b.Len())
	case TruthB:
		result.Precision, result.Recall, result.F1 = accuracy(result.Intersection, b.Len(), a.Len())
	}

	return result
}

// jaccard is |intersection| / |union|, defined as 1.0 when both sets are
// empty: two empty inventories agree perfectly by convention, the 0/0 case
// is not undefined here.
func jaccard(intersection, union int) float64 {
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// accuracy computes precision/recall/F1 for a candidate of size
// candidateLen against a ground truth of size truthLen. Undefined values
// (zero denominator) are nil, and F1 is nil when either input is nil or
// both are zero.
func accuracy(intersection, truthLen, candidateLen int) (precision, recall, f1 *float64) {
	if candidateLen > 0 {
		precision = ptr(float64(intersection) / float64(candidateLen))
	}
	if truthLen > 0 {
		recall = ptr(float64(intersection) / float64(truthLen))
	}
	if precision == nil || recall == nil {
		return precision, recall, nil
	}
	if *precision+*recall == 0 {
		return precision, recall, nil
	}
	f1 = ptr(2 * *precision * *recall / (*precision + *recall))
	return precision, recall, f1
}

func ptr(v float64) *float64 {
	return &v
}
