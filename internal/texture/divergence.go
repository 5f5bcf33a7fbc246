package texture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// DivergenceBound is the maximum Jensen-Shannon divergence between two
// distributions when computed with the natural logarithm.
const DivergenceBound = math.Ln2

// NormalizationTolerance is how far a histogram's total may drift from 1 and
// still be accepted as a probability distribution.
const NormalizationTolerance = 1e-9

// Divergence returns the Jensen-Shannon divergence between two normalized
// pattern histograms: JSD(P,Q) = (KL(P||M) + KL(Q||M))/2 with M = (P+Q)/2.
// Zero-probability entries contribute nothing, so no smoothing is applied.
// The natural logarithm is used throughout; results lie in [0, ln 2].
func Divergence(p, q *Histogram) (float64, error) {
	if len(p.Entries) != len(q.Entries) {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("histogram length mismatch: %d vs %d", len(p.Entries), len(q.Entries)), nil)
	}
	if !p.IsNormalized(NormalizationTolerance) {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("first histogram is not normalized (total %v)", p.Total()), nil)
	}
	if !q.IsNormalized(NormalizationTolerance) {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("second histogram is not normalized (total %v)", q.Total()), nil)
	}

	return stat.JensenShannon(p.Entries, q.Entries), nil
}
