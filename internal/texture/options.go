package texture

import (
	"fmt"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// TieBreak selects the pixel value a majority-vote downsampling block
// collapses to when it contains exactly as many ones as zeros.
type TieBreak int

const (
	// TiesToZero treats an evenly split block as background.
	TiesToZero TieBreak = iota
	// TiesToOne treats an evenly split block as foreground.
	TiesToOne
)

// String returns the policy name used in reports and logs.
func (t TieBreak) String() string {
	if t == TiesToOne {
		return "ones"
	}
	return "zeros"
}

// EvalOptions configures a texture evaluation run. Options are plain values
// threaded through every call; two evaluators with different options never
// interfere.
type EvalOptions struct {
	// PatchSize is the side length of the scanned window at every resolution
	// level. The histogram has 2^(PatchSize^2) bins, which is why it stays
	// small and scale variation comes from Factors instead.
	PatchSize int

	// Factors are the downsampling factors of the multiresolution pyramid,
	// in the order their per-level distances are averaged. Factor 1 is the
	// original image.
	Factors []int

	// TieBreak resolves evenly split majority-vote blocks.
	TieBreak TieBreak

	// MaxWorkers bounds the histogram and pairwise-distance fan-out.
	// Zero means one worker per CPU.
	MaxWorkers int
}

// DefaultOptions returns the evaluation settings matching the reference
// method: a 4x4 patch (65536 patterns) at full resolution only.
func DefaultOptions() EvalOptions {
	return EvalOptions{
		PatchSize:  4,
		Factors:    []int{1},
		TieBreak:   TiesToZero,
		MaxWorkers: 0,
	}
}

// WithPatchSize returns options using the given patch side length.
func (o EvalOptions) WithPatchSize(n int) EvalOptions {
	o.PatchSize = n
	return o
}

// WithFactors returns options using the given pyramid factors.
func (o EvalOptions) WithFactors(factors ...int) EvalOptions {
	o.Factors = factors
	return o
}

// WithTiesToOne returns options whose downsampling resolves even blocks to 1.
func (o EvalOptions) WithTiesToOne() EvalOptions {
	o.TieBreak = TiesToOne
	return o
}

// WithMaxWorkers returns options with a bounded worker count.
func (o EvalOptions) WithMaxWorkers(n int) EvalOptions {
	o.MaxWorkers = n
	return o
}

// Validate rejects option values that no image could satisfy. Checks against
// concrete image dimensions happen when histograms are built.
func (o EvalOptions) Validate() error {
	if o.PatchSize < 1 || o.PatchSize > MaxPatchSize {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("patch size must be in [1,%d], got %d", MaxPatchSize, o.PatchSize), nil)
	}
	if len(o.Factors) == 0 {
		return apperrors.NewConfigurationError("at least one resolution factor is required", nil)
	}
	seen := make(map[int]bool, len(o.Factors))
	for _, f := range o.Factors {
		if f < 1 {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("resolution factors must be positive, got %d", f), nil)
		}
		if seen[f] {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("resolution factor %d appears more than once", f), nil)
		}
		seen[f] = true
	}
	if o.TieBreak != TiesToZero && o.TieBreak != TiesToOne {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown tie-break policy %d", o.TieBreak), nil)
	}
	if o.MaxWorkers < 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("max workers must not be negative, got %d", o.MaxWorkers), nil)
	}
	return nil
}
