package models

import "time"

// EvaluationRequest asks the service to score a set of texture images
// against a reference. Patch size and factors fall back to the server
// defaults when omitted.
type EvaluationRequest struct {
	ReferenceURL string   `json:"reference_url" binding:"required"`
	ImageURLs    []string `json:"image_urls" binding:"required,min=1"`

	PatchSize    int   `json:"patch_size,omitempty"`
	Factors      []int `json:"factors,omitempty"`
	TiesToOne    bool  `json:"ties_to_one,omitempty"`
	MaxDimension uint  `json:"max_dimension,omitempty"`
}

// EvaluationResponse is the full score report for one evaluation call.
type EvaluationResponse struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	Scores Scores `json:"scores"`

	// DistanceMatrix rows follow image_urls order with the reference as the
	// final row and column. Symmetric, zero diagonal, entries in [0, ln 2].
	DistanceMatrix [][]float64 `json:"distance_matrix"`
	MatrixOrder    []string    `json:"matrix_order"`

	// SkippedLevels lists pyramid levels omitted because downsampling shrank
	// the images below the patch size.
	SkippedLevels []SkippedLevel `json:"skipped_levels,omitempty"`

	Config EvaluationConfig `json:"config"`
}

// Scores holds the two aggregate texture statistics.
type Scores struct {
	// Inconsistency is the mean divergence between the set and the
	// reference; lower means the set reproduces the reference texture.
	Inconsistency float64 `json:"inconsistency"`
	// Diversity is the mean pairwise divergence within the set.
	Diversity float64 `json:"diversity"`
}

// SkippedLevel reports one omitted pyramid level.
type SkippedLevel struct {
	Factor int    `json:"factor"`
	Reason string `json:"reason"`
}

// EvaluationConfig echoes the parameters an evaluation actually ran with.
type EvaluationConfig struct {
	PatchSize int    `json:"patch_size"`
	Factors   []int  `json:"factors"`
	TieBreak  string `json:"tie_break"`
}
