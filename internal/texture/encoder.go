package texture

import (
	"fmt"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// MaxPatchSize caps the patch side length. The method itself only requires
// n <= min(H, W), but the pattern table has 2^(n*n) entries: n=5 already
// means 2^25 histogram bins and n=6 a 2^36-bin table that cannot be
// allocated, so the implementation deliberately tightens the bound and
// rejects larger sizes as a configuration error.
const MaxPatchSize = 5

// PatternCount returns the number of distinct n x n binary patterns, 2^(n*n).
func PatternCount(patchSize int) int {
	return 1 << (patchSize * patchSize)
}

// EncodePatch maps an n x n binary patch to its pattern ID. The patch is read
// in row-major order and the first bit read becomes the most significant bit,
// so for example:
//
//	[[0,0],[0,0]] -> 0b0000 -> 0
//	[[0,1],[0,0]] -> 0b0100 -> 4
//	[[1,0],[1,1]] -> 0b1011 -> 11
//
// The mapping is a bijection onto [0, 2^(n*n)).
func EncodePatch(patch [][]uint8) (uint64, error) {
	n := len(patch)
	if n == 0 {
		return 0, apperrors.NewValidationError("patch must not be empty", nil)
	}
	if n > MaxPatchSize {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("patch size %d exceeds the maximum of %d", n, MaxPatchSize), nil)
	}

	var id uint64
	for r, row := range patch {
		if len(row) != n {
			return 0, apperrors.NewValidationError(
				fmt.Sprintf("patch row %d has %d columns, expected a square %dx%d patch", r, len(row), n, n), nil)
		}
		for c, v := range row {
			if v > 1 {
				return 0, apperrors.NewValidationError(
					fmt.Sprintf("patch value at (%d,%d) is %d, expected 0 or 1", r, c, v), nil)
			}
			id = id<<1 | uint64(v)
		}
	}
	return id, nil
}

// encodeWindow encodes the n x n window of img with top-left corner (r, c).
// Bounds and pixel values are guaranteed by BinaryImage, so no validation is
// repeated on this hot path.
func encodeWindow(img *BinaryImage, r, c, n int) uint64 {
	var id uint64
	for dr := 0; dr < n; dr++ {
		base := (r + dr) * img.width
		for dc := 0; dc < n; dc++ {
			id = id<<1 | uint64(img.pix[base+c+dc])
		}
	}
	return id
}
