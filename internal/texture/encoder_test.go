package texture

import (
	"testing"

	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
)

func TestEncodePatch_LiteralValues(t *testing.T) {
	tests := []struct {
		name  string
		patch [][]uint8
		want  uint64
	}{
		{
			name:  "all zeros",
			patch: [][]uint8{{0, 0}, {0, 0}},
			want:  0,
		},
		{
			name:  "single bit in first row",
			patch: [][]uint8{{0, 1}, {0, 0}},
			want:  4,
		},
		{
			name:  "mixed bits",
			patch: [][]uint8{{1, 0}, {1, 1}},
			want:  11,
		},
		{
			name:  "all ones",
			patch: [][]uint8{{1, 1}, {1, 1}},
			want:  15,
		},
		{
			name:  "single pixel one",
			patch: [][]uint8{{1}},
			want:  1,
		},
		{
			name:  "3x3 last bit",
			patch: [][]uint8{{0, 0, 0}, {0, 0, 0}, {0, 0, 1}},
			want:  1,
		},
		{
			name:  "3x3 first bit",
			patch: [][]uint8{{1, 0, 0}, {0, 0, 0}, {0, 0, 0}},
			want:  256,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePatch(tt.patch)
			if err != nil {
				t.Fatalf("EncodePatch returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodePatch = %d, want %d", got, tt.want)
			}
		})
	}
}

// patchFromID inverts the encoding: bit k of id (counting from the most
// significant of the n*n used bits) becomes the k-th pixel in row-major order.
func patchFromID(id uint64, n int) [][]uint8 {
	patch := make([][]uint8, n)
	bits := n * n
	for r := 0; r < n; r++ {
		row := make([]uint8, n)
		for c := 0; c < n; c++ {
			shift := uint(bits - 1 - (r*n + c))
			row[c] = uint8((id >> shift) & 1)
		}
		patch[r] = row
	}
	return patch
}

func TestEncodePatch_Bijection(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		count := PatternCount(n)
		seen := make(map[uint64]bool, count)
		for id := 0; id < count; id++ {
			got, err := EncodePatch(patchFromID(uint64(id), n))
			if err != nil {
				t.Fatalf("n=%d id=%d: unexpected error: %v", n, id, err)
			}
			if got != uint64(id) {
				t.Fatalf("n=%d: EncodePatch(patchFromID(%d)) = %d, want %d", n, id, got, id)
			}
			if seen[got] {
				t.Fatalf("n=%d: pattern ID %d produced twice", n, got)
			}
			seen[got] = true
		}
		if len(seen) != count {
			t.Errorf("n=%d: got %d distinct IDs, want %d", n, len(seen), count)
		}
	}
}

func TestEncodePatch_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		patch    [][]uint8
		wantType apperrors.ErrorType
	}{
		{
			name:     "empty patch",
			patch:    nil,
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "non-square patch",
			patch:    [][]uint8{{0, 1}, {0}},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "non-binary value",
			patch:    [][]uint8{{0, 2}, {0, 0}},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "oversized patch",
			patch: func() [][]uint8 {
				p := make([][]uint8, MaxPatchSize+1)
				for i := range p {
					p[i] = make([]uint8, MaxPatchSize+1)
				}
				return p
			}(),
			wantType: apperrors.ErrorTypeConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodePatch(tt.patch)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}
