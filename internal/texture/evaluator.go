package texture

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

// Evaluator scores sets of binary texture images by comparing their
// multipoint pattern histograms. Every image's bundle is computed exactly
// once per call and published before any distance task reads it, so the
// pairwise fan-out only ever does histogram lookups plus divergence work.
type Evaluator struct {
	opts EvalOptions
	pool *WorkerPool
}

// Report is the outcome of a full evaluation: both scores plus the distance
// matrix they were derived from. The matrix rows follow the input set order
// with the reference as the final row and column.
type Report struct {
	Inconsistency float64
	Diversity     float64
	Matrix        *mat.SymDense
	Skipped       []SkippedLevel
}

// NewEvaluator validates the options and starts the worker pool.
func NewEvaluator(opts EvalOptions) (*Evaluator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	pool := NewWorkerPool(opts.MaxWorkers)
	pool.Start()
	return &Evaluator{opts: opts, pool: pool}, nil
}

// Options returns the settings this evaluator runs with.
func (e *Evaluator) Options() EvalOptions { return e.opts }

// Close shuts down the worker pool. The evaluator must not be used after.
func (e *Evaluator) Close() { e.pool.Close() }

// Evaluate computes inconsistency against the reference, diversity within the
// set, and the full distance matrix, from one shared bundle cache.
func (e *Evaluator) Evaluate(set []*BinaryImage, reference *BinaryImage) (*Report, error) {
	if reference == nil {
		return nil, apperrors.NewValidationError("a reference image is required", nil)
	}
	if err := validateSet(set, reference); err != nil {
		return nil, err
	}

	all := make([]*BinaryImage, 0, len(set)+1)
	all = append(all, set...)
	all = append(all, reference)

	bundles, err := e.buildBundles(all)
	if err != nil {
		return nil, err
	}

	matrix, err := e.pairwiseMatrix(bundles)
	if err != nil {
		return nil, err
	}

	n := len(set)
	refDists := make([]float64, n)
	for i := 0; i < n; i++ {
		refDists[i] = matrix.At(i, n)
	}

	report := &Report{
		Inconsistency: stat.Mean(refDists, nil),
		Diversity:     meanUpperTriangle(matrix, n),
		Matrix:        matrix,
		Skipped:       bundles[0].Skipped,
	}
	return report, nil
}

// Inconsistency is the mean distance between the reference image and every
// image in the set.
func (e *Evaluator) Inconsistency(set []*BinaryImage, reference *BinaryImage) (float64, error) {
	if reference == nil {
		return 0, apperrors.NewValidationError("a reference image is required", nil)
	}
	if err := validateSet(set, reference); err != nil {
		return 0, err
	}

	all := append(append(make([]*BinaryImage, 0, len(set)+1), set...), reference)
	bundles, err := e.buildBundles(all)
	if err != nil {
		return 0, err
	}

	refBundle := bundles[len(bundles)-1]
	dists := make([]float64, len(set))
	errs := make([]error, len(set))
	for i := range set {
		i := i
		e.pool.Submit(func() {
			dists[i], errs[i] = BundleDistance(bundles[i], refBundle)
		})
	}
	e.pool.Wait()
	if err := firstError(errs); err != nil {
		return 0, err
	}

	return stat.Mean(dists, nil), nil
}

// Diversity is the mean distance over all unordered pairs within the set.
// A singleton set has no pairs and a diversity of exactly 0.
func (e *Evaluator) Diversity(set []*BinaryImage) (float64, error) {
	if err := validateSet(set, nil); err != nil {
		return 0, err
	}
	if len(set) == 1 {
		return 0, nil
	}

	bundles, err := e.buildBundles(set)
	if err != nil {
		return 0, err
	}
	matrix, err := e.pairwiseMatrix(bundles)
	if err != nil {
		return 0, err
	}
	return meanUpperTriangle(matrix, len(set)), nil
}

// DistanceMatrix exports the symmetric pairwise distance matrix for the set,
// in caller order, with the reference appended as the last row and column
// when one is supplied. The diagonal is exactly zero.
func (e *Evaluator) DistanceMatrix(set []*BinaryImage, reference *BinaryImage) (*mat.SymDense, error) {
	if err := validateSet(set, reference); err != nil {
		return nil, err
	}

	all := set
	if reference != nil {
		all = append(append(make([]*BinaryImage, 0, len(set)+1), set...), reference)
	}

	bundles, err := e.buildBundles(all)
	if err != nil {
		return nil, err
	}
	return e.pairwiseMatrix(bundles)
}

// buildBundles computes every image's multiresolution bundle concurrently.
// The returned slice is fully populated before any caller reads it.
func (e *Evaluator) buildBundles(imgs []*BinaryImage) ([]*Bundle, error) {
	bundles := make([]*Bundle, len(imgs))
	errs := make([]error, len(imgs))
	for i, img := range imgs {
		i, img := i, img
		e.pool.Submit(func() {
			bundles[i], errs[i] = BuildBundle(img, e.opts)
		})
	}
	e.pool.Wait()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	return bundles, nil
}

// pairwiseMatrix fans the n*(n-1)/2 unordered pairs out over the pool. Each
// task writes a distinct slot, so no locking is needed; the matrix is only
// assembled after every task has finished.
func (e *Evaluator) pairwiseMatrix(bundles []*Bundle) (*mat.SymDense, error) {
	n := len(bundles)
	numPairs := n * (n - 1) / 2
	dists := make([]float64, numPairs)
	errs := make([]error, numPairs)

	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			i, j := i, j
			idx := k
			e.pool.Submit(func() {
				dists[idx], errs[idx] = BundleDistance(bundles[i], bundles[j])
			})
			k++
		}
	}
	e.pool.Wait()
	if err := firstError(errs); err != nil {
		return nil, err
	}

	matrix := mat.NewSymDense(n, nil)
	k = 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			matrix.SetSym(i, j, dists[k])
			k++
		}
	}
	return matrix, nil
}

// meanUpperTriangle averages matrix entries above the diagonal restricted to
// the first n rows and columns.
func meanUpperTriangle(matrix *mat.SymDense, n int) float64 {
	if n < 2 {
		return 0
	}
	dists := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dists = append(dists, matrix.At(i, j))
		}
	}
	return stat.Mean(dists, nil)
}

// validateSet enforces the image-set invariants: non-empty and uniform
// dimensions, with the reference (when present) matching the set.
func validateSet(set []*BinaryImage, reference *BinaryImage) error {
	if len(set) == 0 {
		return apperrors.NewValidationError("image set must not be empty", nil)
	}
	for i, img := range set {
		if img == nil {
			return apperrors.NewValidationError(fmt.Sprintf("image %d is nil", i), nil)
		}
		if !img.SameSize(set[0]) {
			return apperrors.NewValidationError(
				fmt.Sprintf("image %d is %dx%d, expected %dx%d like the rest of the set",
					i, img.Height(), img.Width(), set[0].Height(), set[0].Width()), nil)
		}
	}
	if reference != nil && !reference.SameSize(set[0]) {
		return apperrors.NewValidationError(
			fmt.Sprintf("reference image is %dx%d, expected %dx%d like the set",
				reference.Height(), reference.Width(), set[0].Height(), set[0].Width()), nil)
	}
	return nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
