package texture

import (
	"fmt"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// BinaryImage is an immutable HxW grid of {0,1} pixels. It is the only pixel
// representation the texture engine operates on; callers produce one from a
// decoded image via the imaging package or directly from raw rows.
type BinaryImage struct {
	pix    []uint8
	height int
	width  int
}

// NewBinaryImage builds a BinaryImage from row-major rows. All rows must have
// the same length and every value must be 0 or 1.
func NewBinaryImage(rows [][]uint8) (*BinaryImage, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, apperrors.NewValidationError("image must have at least one row and one column", nil)
	}

	height := len(rows)
	width := len(rows[0])
	pix := make([]uint8, 0, height*width)

	for r, row := range rows {
		if len(row) != width {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("row %d has %d columns, expected %d", r, len(row), width), nil)
		}
		for c, v := range row {
			if v > 1 {
				return nil, apperrors.NewValidationError(
					fmt.Sprintf("pixel (%d,%d) has value %d, binary images only allow 0 and 1", r, c, v), nil)
			}
			pix = append(pix, v)
		}
	}

	return &BinaryImage{pix: pix, height: height, width: width}, nil
}

// newBinaryImageUnchecked wraps already-validated pixels, used by Downsample
// where every written value is known to be 0 or 1.
func newBinaryImageUnchecked(pix []uint8, height, width int) *BinaryImage {
	return &BinaryImage{pix: pix, height: height, width: width}
}

// Height returns the number of rows.
func (b *BinaryImage) Height() int { return b.height }

// Width returns the number of columns.
func (b *BinaryImage) Width() int { return b.width }

// At returns the pixel at row r, column c.
func (b *BinaryImage) At(r, c int) uint8 {
	return b.pix[r*b.width+c]
}

// SameSize reports whether both images have identical dimensions.
func (b *BinaryImage) SameSize(other *BinaryImage) bool {
	return b.height == other.height && b.width == other.width
}
