package texture

import (
	"math"
	"testing"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

func newTestEvaluator(t *testing.T, opts EvalOptions) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(opts)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func testOptions() EvalOptions {
	return DefaultOptions().WithPatchSize(2)
}

// Three 3x3 fixtures with distinct pattern statistics.
func fixtureSet(t *testing.T) []*BinaryImage {
	t.Helper()
	return []*BinaryImage{
		stripeImage(t),
		mustImage(t, [][]uint8{
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		}),
		mustImage(t, [][]uint8{
			{1, 1, 1},
			{0, 0, 0},
			{1, 1, 1},
		}),
	}
}

func TestDiversity_SingletonIsZero(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	d, err := e.Diversity([]*BinaryImage{stripeImage(t)})
	if err != nil {
		t.Fatalf("Diversity: %v", err)
	}
	if d != 0 {
		t.Errorf("diversity of a single image = %v, want exactly 0", d)
	}
}

func TestDiversity_EmptySetFails(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	_, err := e.Diversity(nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDistanceMatrix_Properties(t *testing.T) {
	e := newTestEvaluator(t, testOptions())

	stripe := stripeImage(t)
	zeros := mustImage(t, [][]uint8{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})
	set := []*BinaryImage{stripe, stripe, zeros}

	matrix, err := e.DistanceMatrix(set, nil)
	if err != nil {
		t.Fatalf("DistanceMatrix: %v", err)
	}

	n, _ := matrix.Dims()
	if n != 3 {
		t.Fatalf("matrix size = %d, want 3", n)
	}
	for i := 0; i < n; i++ {
		if matrix.At(i, i) != 0 {
			t.Errorf("diagonal entry (%d,%d) = %v, want 0", i, i, matrix.At(i, i))
		}
		for j := 0; j < n; j++ {
			if matrix.At(i, j) != matrix.At(j, i) {
				t.Errorf("matrix not symmetric at (%d,%d)", i, j)
			}
			if matrix.At(i, j) < 0 || matrix.At(i, j) > DivergenceBound+1e-12 {
				t.Errorf("entry (%d,%d) = %v outside [0, ln 2]", i, j, matrix.At(i, j))
			}
		}
	}

	// Identical images are at distance 0; the stripe and the empty image
	// have disjoint pattern support, so their distance is strictly positive.
	if matrix.At(0, 1) != 0 {
		t.Errorf("distance between identical images = %v, want 0", matrix.At(0, 1))
	}
	if matrix.At(0, 2) <= 0 {
		t.Errorf("distance between stripe and empty image = %v, want > 0", matrix.At(0, 2))
	}
}

// Every matrix slot must hold the distance of its own pair; an off-by-one in
// the fan-out would leave later slots zero or scramble them across pairs.
func TestDistanceMatrix_MatchesPairwiseDistances(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := fixtureSet(t)

	matrix, err := e.DistanceMatrix(set, stripeImage(t))
	if err != nil {
		t.Fatalf("DistanceMatrix: %v", err)
	}

	all := append(append([]*BinaryImage{}, set...), stripeImage(t))
	bundles := make([]*Bundle, len(all))
	for i, img := range all {
		bundles[i], err = BuildBundle(img, e.Options())
		if err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			want, err := BundleDistance(bundles[i], bundles[j])
			if err != nil {
				t.Fatal(err)
			}
			if got := matrix.At(i, j); math.Abs(got-want) > 1e-12 {
				t.Errorf("entry (%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestEvaluate_SingleImageSet(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := fixtureSet(t)[:1]

	report, err := e.Evaluate(set, fixtureSet(t)[1])
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n, _ := report.Matrix.Dims(); n != 2 {
		t.Fatalf("matrix size = %d, want 2 (one image plus the reference)", n)
	}
	if report.Diversity != 0 {
		t.Errorf("diversity of a single image = %v, want exactly 0", report.Diversity)
	}
	if got := report.Matrix.At(0, 1); report.Inconsistency != got {
		t.Errorf("inconsistency = %v, want the single reference distance %v", report.Inconsistency, got)
	}
	if report.Inconsistency <= 0 {
		t.Errorf("inconsistency = %v, want > 0 for distinct images", report.Inconsistency)
	}
}

func TestDistanceMatrix_IncludesReference(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := fixtureSet(t)

	matrix, err := e.DistanceMatrix(set[:2], set[2])
	if err != nil {
		t.Fatalf("DistanceMatrix: %v", err)
	}
	if n, _ := matrix.Dims(); n != 3 {
		t.Fatalf("matrix size = %d, want set + reference = 3", n)
	}
}

func TestInconsistency_MatchesManualMean(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := fixtureSet(t)
	reference := set[0] // reference is a member of the set

	got, err := e.Inconsistency(set, reference)
	if err != nil {
		t.Fatalf("Inconsistency: %v", err)
	}

	// Manual mean over distances to the reference, including the zero
	// distance from the reference to itself.
	var want float64
	refBundle, err := BuildBundle(reference, e.Options())
	if err != nil {
		t.Fatal(err)
	}
	for _, img := range set {
		bundle, err := BuildBundle(img, e.Options())
		if err != nil {
			t.Fatal(err)
		}
		d, err := BundleDistance(bundle, refBundle)
		if err != nil {
			t.Fatal(err)
		}
		want += d
	}
	want /= float64(len(set))

	if math.Abs(got-want) > 1e-12 {
		t.Errorf("inconsistency = %v, want %v", got, want)
	}
	if got <= 0 {
		t.Errorf("inconsistency = %v, want > 0 for a set with differing members", got)
	}
}

func TestInconsistency_RequiresReference(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	_, err := e.Inconsistency(fixtureSet(t), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEvaluate_ScoresAgreeWithComponents(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := fixtureSet(t)
	reference := stripeImage(t)

	report, err := e.Evaluate(set, reference)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	inconsistency, err := e.Inconsistency(set, reference)
	if err != nil {
		t.Fatal(err)
	}
	diversity, err := e.Diversity(set)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(report.Inconsistency-inconsistency) > 1e-12 {
		t.Errorf("report inconsistency = %v, standalone = %v", report.Inconsistency, inconsistency)
	}
	if math.Abs(report.Diversity-diversity) > 1e-12 {
		t.Errorf("report diversity = %v, standalone = %v", report.Diversity, diversity)
	}

	n, _ := report.Matrix.Dims()
	if n != len(set)+1 {
		t.Errorf("matrix size = %d, want %d (set + reference)", n, len(set)+1)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	set := fixtureSet(t)
	reference := stripeImage(t)

	first, err := newTestEvaluator(t, testOptions()).Evaluate(set, reference)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newTestEvaluator(t, testOptions()).Evaluate(set, reference)
	if err != nil {
		t.Fatal(err)
	}

	if first.Inconsistency != second.Inconsistency || first.Diversity != second.Diversity {
		t.Errorf("repeated evaluation differs: (%v,%v) vs (%v,%v)",
			first.Inconsistency, first.Diversity, second.Inconsistency, second.Diversity)
	}
}

func TestEvaluate_ReportsSkippedLevels(t *testing.T) {
	opts := DefaultOptions().WithPatchSize(2).WithFactors(1, 8)
	e := newTestEvaluator(t, opts)

	report, err := e.Evaluate(fixtureSet(t), stripeImage(t))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Factor != 8 {
		t.Errorf("expected factor 8 to be reported as skipped, got %+v", report.Skipped)
	}
}

func TestValidateSet_DimensionMismatch(t *testing.T) {
	e := newTestEvaluator(t, testOptions())
	set := []*BinaryImage{
		stripeImage(t),
		mustImage(t, [][]uint8{{0, 1}, {1, 0}}),
	}
	_, err := e.Diversity(set)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
