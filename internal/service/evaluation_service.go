package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/texture-inspector-go/internal/config"
	apperrors "github.com/anime-shed/texture-inspector-go/internal/errors"
	"github.com/anime-shed/texture-inspector-go/internal/imaging"
	"github.com/anime-shed/texture-inspector-go/internal/logger"
	"github.com/anime-shed/texture-inspector-go/internal/storage"
	"github.com/anime-shed/texture-inspector-go/internal/texture"
	"github.com/anime-shed/texture-inspector-go/pkg/models"
)

// EvaluationService scores a set of texture images against a reference.
type EvaluationService interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationResponse, error)
}

type evaluationService struct {
	fetcher storage.ImageFetcher
	cfg     *config.Config
}

// NewEvaluationService creates the evaluation service.
func NewEvaluationService(fetcher storage.ImageFetcher, cfg *config.Config) EvaluationService {
	return &evaluationService{fetcher: fetcher, cfg: cfg}
}

// Evaluate fetches the reference and every set image, binarizes them, and
// runs the texture evaluator. Configuration problems are rejected before any
// image is fetched.
func (s *evaluationService) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationResponse, error) {
	start := time.Now()

	opts := s.buildOptions(req)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	maxDim := req.MaxDimension
	if maxDim == 0 {
		maxDim = s.cfg.MaxImageDimension
	}

	// Reference first, then the set, so indexes line up with matrix order
	// after the reference is moved to the end.
	urls := append([]string{req.ReferenceURL}, req.ImageURLs...)
	images, err := s.fetchBinaryImages(ctx, urls, maxDim)
	if err != nil {
		return nil, err
	}
	reference, set := images[0], images[1:]

	evaluator, err := texture.NewEvaluator(opts)
	if err != nil {
		return nil, err
	}
	defer evaluator.Close()

	report, err := evaluator.Evaluate(set, reference)
	if err != nil {
		return nil, err
	}

	resp := &models.EvaluationResponse{
		ID:                uuid.New().String(),
		Timestamp:         start,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Scores: models.Scores{
			Inconsistency: report.Inconsistency,
			Diversity:     report.Diversity,
		},
		DistanceMatrix: matrixToRows(report),
		MatrixOrder:    append(append([]string{}, req.ImageURLs...), req.ReferenceURL),
		SkippedLevels:  skippedToModels(report.Skipped),
		Config: models.EvaluationConfig{
			PatchSize: opts.PatchSize,
			Factors:   opts.Factors,
			TieBreak:  opts.TieBreak.String(),
		},
	}

	logger.WithFields(logrus.Fields{
		"evaluation_id":      resp.ID,
		"images":             len(req.ImageURLs),
		"patch_size":         opts.PatchSize,
		"factors":            opts.Factors,
		"inconsistency":      resp.Scores.Inconsistency,
		"diversity":          resp.Scores.Diversity,
		"skipped_levels":     len(resp.SkippedLevels),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Info("Texture evaluation completed")

	return resp, nil
}

// buildOptions applies request overrides on top of the configured defaults.
func (s *evaluationService) buildOptions(req models.EvaluationRequest) texture.EvalOptions {
	opts := texture.DefaultOptions().
		WithPatchSize(s.cfg.PatchSize).
		WithFactors(s.cfg.Factors...).
		WithMaxWorkers(s.cfg.MaxWorkers)

	// Any explicit override is applied as-is; Validate rejects bad values
	// rather than silently falling back to the defaults.
	if req.PatchSize != 0 {
		opts = opts.WithPatchSize(req.PatchSize)
	}
	if len(req.Factors) > 0 {
		opts = opts.WithFactors(req.Factors...)
	}
	if req.TiesToOne {
		opts = opts.WithTiesToOne()
	}
	return opts
}

// fetchBinaryImages downloads and binarizes every URL concurrently. The
// first failure aborts the evaluation; nothing is scored from a partial set.
func (s *evaluationService) fetchBinaryImages(ctx context.Context, urls []string, maxDim uint) ([]*texture.BinaryImage, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ImageFetchTimeout)
	defer cancel()

	images := make([]*texture.BinaryImage, len(urls))
	errs := make([]error, len(urls))
	var wg sync.WaitGroup

	for i, imageURL := range urls {
		wg.Add(1)
		go func(i int, imageURL string) {
			defer wg.Done()

			img, err := s.fetcher.FetchImage(fetchCtx, imageURL)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					errs[i] = apperrors.NewTimeoutError(fmt.Sprintf("timed out fetching %s", imageURL), err)
				} else {
					errs[i] = apperrors.NewNetworkError(fmt.Sprintf("failed to fetch %s", imageURL), err)
				}
				return
			}

			bin, err := imaging.Binarize(img, maxDim)
			if err != nil {
				errs[i] = err
				return
			}
			images[i] = bin
		}(i, imageURL)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return images, nil
}

func matrixToRows(report *texture.Report) [][]float64 {
	n, _ := report.Matrix.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = report.Matrix.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

func skippedToModels(skipped []texture.SkippedLevel) []models.SkippedLevel {
	if len(skipped) == 0 {
		return nil
	}
	out := make([]models.SkippedLevel, len(skipped))
	for i, s := range skipped {
		out[i] = models.SkippedLevel{Factor: s.Factor, Reason: s.Reason}
	}
	return out
}
