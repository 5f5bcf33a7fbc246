// Package imaging turns decoded images into the {0,1} grids the texture
// engine consumes: greyscale conversion, optional downscaling, and Otsu
// thresholding. Any defect found here surfaces as a validation error before
// histogram work begins.
package imaging

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
	"github.com/anime-shed/texture-inspector-go/internal/texture"
)

// Binarize converts img to a BinaryImage. When maxDimension is non-zero and
// the image's longer side exceeds it, the image is first downscaled to fit
// (bilinear, aspect ratio preserved). Thresholding follows Otsu's method
// with pixels strictly above the threshold mapping to 1.
func Binarize(img image.Image, maxDimension uint) (*texture.BinaryImage, error) {
	if img == nil {
		return nil, apperrors.NewValidationError("no image supplied", nil)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, apperrors.NewValidationError("image has no pixels", nil)
	}

	if maxDimension > 0 && (uint(bounds.Dx()) > maxDimension || uint(bounds.Dy()) > maxDimension) {
		if bounds.Dx() >= bounds.Dy() {
			img = resize.Resize(maxDimension, 0, img, resize.Bilinear)
		} else {
			img = resize.Resize(0, maxDimension, img, resize.Bilinear)
		}
		bounds = img.Bounds()
	}

	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	height, width := bounds.Dy(), bounds.Dx()
	var histo [256]int
	for y := 0; y < height; y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+width] {
			histo[v]++
		}
	}

	threshold := otsuThreshold(&histo, height*width)

	rows := make([][]uint8, height)
	for y := 0; y < height; y++ {
		row := make([]uint8, width)
		for x, v := range gray.Pix[y*gray.Stride : y*gray.Stride+width] {
			if v > threshold {
				row[x] = 1
			}
		}
		rows[y] = row
	}

	return texture.NewBinaryImage(rows)
}

// otsuThreshold picks the intensity cut that maximizes the variance between
// the class at or below the cut and the class above it.
// https://en.wikipedia.org/wiki/Otsu%27s_method
func otsuThreshold(histo *[256]int, total int) uint8 {
	var weighted int
	for v, n := range histo {
		weighted += v * n
	}

	var (
		best      uint8
		bestScore int

		below    int
		belowSum int
	)
	for cut, n := range histo {
		below += n
		belowSum += cut * n

		above := total - below
		// A cut with every pixel on one side separates nothing.
		if below == 0 || above == 0 {
			continue
		}

		// Inter-class variance up to the constant 1/total^2 factor, which
		// does not change the argmax.
		gap := belowSum/below - (weighted-belowSum)/above
		if score := below * above * gap * gap; score > bestScore {
			bestScore = score
			best = uint8(cut)
		}
	}

	return best
}
