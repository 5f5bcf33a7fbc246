package texture

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// Histogram holds the frequency of every possible PatchSize x PatchSize binary
// pattern, indexed by pattern ID. Entries are raw occurrence counts after
// BuildHistogram and probabilities after Normalized.
type Histogram struct {
	Entries   []float64
	PatchSize int
}

// BuildHistogram slides a patchSize x patchSize window over every position of
// img (stride 1, no padding; edge positions that would not fit are not
// counted) and counts pattern occurrences. The sum of the resulting entries
// is (H-n+1)*(W-n+1).
func BuildHistogram(img *BinaryImage, patchSize int) (*Histogram, error) {
	if patchSize < 1 || patchSize > MaxPatchSize {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("patch size must be in [1,%d], got %d", MaxPatchSize, patchSize), nil)
	}
	if img.Height() < patchSize || img.Width() < patchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("image %dx%d is smaller than the %dx%d patch", img.Height(), img.Width(), patchSize, patchSize), nil)
	}

	entries := make([]float64, PatternCount(patchSize))
	for r := 0; r+patchSize <= img.Height(); r++ {
		for c := 0; c+patchSize <= img.Width(); c++ {
			entries[encodeWindow(img, r, c, patchSize)]++
		}
	}

	return &Histogram{Entries: entries, PatchSize: patchSize}, nil
}

// Total returns the sum of all entries.
func (h *Histogram) Total() float64 {
	var total float64
	for _, e := range h.Entries {
		total += e
	}
	return total
}

// Normalized returns a copy of h scaled so its entries sum to 1. Calling it
// on an all-zero histogram is a validation error; BuildHistogram never
// produces one.
func (h *Histogram) Normalized() (*Histogram, error) {
	total := h.Total()
	if total == 0 {
		return nil, apperrors.NewValidationError("cannot normalize a histogram with zero total count", nil)
	}
	entries := make([]float64, len(h.Entries))
	for i, e := range h.Entries {
		entries[i] = e / total
	}
	return &Histogram{Entries: entries, PatchSize: h.PatchSize}, nil
}

// IsNormalized reports whether the entries sum to 1 within epsilon.
func (h *Histogram) IsNormalized(epsilon float64) bool {
	return math.Abs(h.Total()-1) <= epsilon
}

// Equals checks entry-wise equality within epsilon.
func (h *Histogram) Equals(other *Histogram, epsilon float64) bool {
	if h.PatchSize != other.PatchSize || len(h.Entries) != len(other.Entries) {
		return false
	}
	for i, e := range h.Entries {
		if math.Abs(e-other.Entries[i]) > epsilon {
			return false
		}
	}
	return true
}
