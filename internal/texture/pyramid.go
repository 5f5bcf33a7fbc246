package texture

import (
	"fmt"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// SkippedLevel records a pyramid level that was requested but could not be
// built because downsampling shrank the image below the patch size. Skips are
// reported to the caller, never silently folded into an empty histogram.
type SkippedLevel struct {
	Factor int    `json:"factor"`
	Reason string `json:"reason"`
}

// Level is one resolution of a multiresolution bundle: the downsampling
// factor and the normalized pattern histogram observed at that scale.
type Level struct {
	Factor    int
	Histogram *Histogram
}

// Bundle is the multiresolution histogram summary of a single image. With
// factors [1] it degenerates to exactly one full-resolution histogram.
type Bundle struct {
	PatchSize int
	Levels    []Level
	Skipped   []SkippedLevel
}

// Downsample shrinks img by an integer factor: the image is partitioned into
// factor x factor blocks (partial blocks at the right and bottom edges
// included) and each block collapses to the majority pixel value, with even
// splits resolved by tie. The result is ceil(H/f) x ceil(W/f).
func Downsample(img *BinaryImage, factor int, tie TieBreak) (*BinaryImage, error) {
	if factor < 1 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("downsampling factor must be positive, got %d", factor), nil)
	}
	if factor == 1 {
		return img, nil
	}

	outH := (img.Height() + factor - 1) / factor
	outW := (img.Width() + factor - 1) / factor
	pix := make([]uint8, 0, outH*outW)

	for br := 0; br < outH; br++ {
		for bc := 0; bc < outW; bc++ {
			ones, total := 0, 0
			for r := br * factor; r < (br+1)*factor && r < img.Height(); r++ {
				for c := bc * factor; c < (bc+1)*factor && c < img.Width(); c++ {
					ones += int(img.At(r, c))
					total++
				}
			}
			var v uint8
			switch {
			case 2*ones > total:
				v = 1
			case 2*ones == total && tie == TiesToOne:
				v = 1
			}
			pix = append(pix, v)
		}
	}

	return newBinaryImageUnchecked(pix, outH, outW), nil
}

// BuildBundle computes one normalized histogram per requested resolution
// factor. A factor whose downsampled image no longer fits the patch is
// recorded in Skipped. Failing every level is a validation error: factor 1
// only skips when the original image itself is smaller than the patch, which
// BuildHistogram rejects up front.
func BuildBundle(img *BinaryImage, opts EvalOptions) (*Bundle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if img.Height() < opts.PatchSize || img.Width() < opts.PatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("image %dx%d is smaller than the %dx%d patch at full resolution",
				img.Height(), img.Width(), opts.PatchSize, opts.PatchSize), nil)
	}

	bundle := &Bundle{PatchSize: opts.PatchSize}
	for _, factor := range opts.Factors {
		scaled, err := Downsample(img, factor, opts.TieBreak)
		if err != nil {
			return nil, err
		}
		if scaled.Height() < opts.PatchSize || scaled.Width() < opts.PatchSize {
			bundle.Skipped = append(bundle.Skipped, SkippedLevel{
				Factor: factor,
				Reason: fmt.Sprintf("downsampled image %dx%d is smaller than the %dx%d patch",
					scaled.Height(), scaled.Width(), opts.PatchSize, opts.PatchSize),
			})
			continue
		}

		hist, err := BuildHistogram(scaled, opts.PatchSize)
		if err != nil {
			return nil, err
		}
		norm, err := hist.Normalized()
		if err != nil {
			return nil, err
		}
		bundle.Levels = append(bundle.Levels, Level{Factor: factor, Histogram: norm})
	}

	return bundle, nil
}

// BundleDistance is the effective distance between two images summarized as
// multiresolution bundles: the arithmetic mean of the per-level divergences
// over the factors present in both. The mean is the one place the
// level-combination policy lives.
func BundleDistance(a, b *Bundle) (float64, error) {
	if a.PatchSize != b.PatchSize {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("bundle patch size mismatch: %d vs %d", a.PatchSize, b.PatchSize), nil)
	}

	byFactor := make(map[int]*Histogram, len(b.Levels))
	for _, lvl := range b.Levels {
		byFactor[lvl.Factor] = lvl.Histogram
	}

	var sum float64
	matched := 0
	for _, lvl := range a.Levels {
		other, ok := byFactor[lvl.Factor]
		if !ok {
			continue
		}
		d, err := Divergence(lvl.Histogram, other)
		if err != nil {
			return 0, err
		}
		sum += d
		matched++
	}

	if matched == 0 {
		return 0, apperrors.NewProcessingError("bundles share no usable resolution level", nil)
	}
	return sum / float64(matched), nil
}
