package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/imageutil"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/logging"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

// PartDetector enumerates part candidates in one photo.
type PartDetector interface {
	Detect(ctx context.Context, photo models.Photo) ([]models.RawDetection, error)
}

// BatchIdentifierConfig bounds the identification fan-out.
type BatchIdentifierConfig struct {
	MaxConcurrentPhotos        int
	MaxConcurrentVerifications int
}

// PhotoFailure records a photo that contributed no parts.
type PhotoFailure struct {
	PhotoIndex int    `json:"photo_index"`
	Error      string `json:"error"`
}

// BatchResult is the outcome of identifying one photo batch.
type BatchResult struct {
	BatchID      string                `json:"batch_id"`
	Parts        []models.VerifiedPart `json:"identified_parts"`
	FailedPhotos []PhotoFailure        `json:"failed_photos"`

	// Err combines every per-photo failure. It is informational: the batch
	// itself succeeded with whatever parts the other photos produced.
	Err error `json:"-"`
}

// BatchIdentifier runs detection and verification over a photo batch.
type BatchIdentifier interface {
	// Identify processes decoded photos.
	Identify(ctx context.Context, photos []models.Photo) (*BatchResult, error)
	// IdentifyEncoded processes data-URI or base64 photos; undecodable
	// entries become per-photo failures.
	IdentifyEncoded(ctx context.Context, images []string) (*BatchResult, error)
}

type batchIdentifier struct {
	detector   PartDetector
	verifier   RegionVerifier
	photoPool  *llm.WorkerPool
	verifyPool *llm.WorkerPool
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewBatchIdentifier creates a BatchIdentifier. Photos and verifications use
// separate pools so a photo waiting on its verifications never holds a slot
// its own verifications need.
func NewBatchIdentifier(
	detector PartDetector,
	verifier RegionVerifier,
	config BatchIdentifierConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) BatchIdentifier {
	return &batchIdentifier{
		detector: detector,
		verifier: verifier,
		photoPool: llm.NewWorkerPool(llm.WorkerPoolConfig{
			Name:          "photo-pool",
			MaxConcurrent: config.MaxConcurrentPhotos,
		}, logger),
		verifyPool: llm.NewWorkerPool(llm.WorkerPoolConfig{
			Name:          "verify-pool",
			MaxConcurrent: config.MaxConcurrentVerifications,
		}, logger),
		metrics: m,
		logger:  logger.Named("batch-identifier"),
	}
}

var _ BatchIdentifier = (*batchIdentifier)(nil)

type photoLoader func(index int) (models.Photo, error)

type photoOutcome struct {
	index int
	parts []models.VerifiedPart
	err   error
}

type indexedPart struct {
	index int
	part  models.VerifiedPart
}

func (b *batchIdentifier) Identify(ctx context.Context, photos []models.Photo) (*BatchResult, error) {
	if len(photos) == 0 {
		return nil, apperrors.ErrNoImages
	}
	return b.run(ctx, len(photos), func(i int) (models.Photo, error) {
		return photos[i], nil
	}), nil
}

func (b *batchIdentifier) IdentifyEncoded(ctx context.Context, images []string) (*BatchResult, error) {
	if len(images) == 0 {
		return nil, apperrors.ErrNoImages
	}
	return b.run(ctx, len(images), func(i int) (models.Photo, error) {
		return imageutil.ParsePhoto(images[i])
	}), nil
}

func (b *batchIdentifier) run(ctx context.Context, count int, load photoLoader) *BatchResult {
	batchID := uuid.New().String()
	logger := b.logger.With(zap.String("batch_id", batchID))
	start := time.Now()

	items := make([]llm.WorkItem[photoOutcome], count)
	indexByID := make(map[string]int, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("photo-%d", i)
		indexByID[id] = i
		items[i] = llm.WorkItem[photoOutcome]{
			ID: id,
			Execute: func(ctx context.Context) (photoOutcome, error) {
				parts, err := b.processPhoto(ctx, i, load)
				return photoOutcome{index: i, parts: parts, err: err}, nil
			},
		}
	}

	outcomes := make([]photoOutcome, 0, count)
	for _, r := range llm.Process(ctx, b.photoPool, items, nil) {
		outcome := r.Result
		if r.Err != nil {
			// Panics and cancellation surface here instead of inside the outcome.
			outcome = photoOutcome{index: indexByID[r.ID], err: r.Err}
		}
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	result := &BatchResult{
		BatchID:      batchID,
		Parts:        []models.VerifiedPart{},
		FailedPhotos: []PhotoFailure{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			b.metrics.RecordPhoto(metrics.PhotoStatusFailed)
			logger.Warn("Photo contributed no parts",
				zap.Int("photo_index", o.index),
				zap.String("error", logging.SanitizeError(o.err)))
			result.FailedPhotos = append(result.FailedPhotos, PhotoFailure{
				PhotoIndex: o.index,
				Error:      logging.SanitizeError(o.err),
			})
			result.Err = multierr.Append(result.Err, fmt.Errorf("photo %d: %w", o.index, o.err))
			continue
		}
		b.metrics.RecordPhoto(metrics.PhotoStatusOK)
		result.Parts = append(result.Parts, o.parts...)
	}

	logger.Info("Batch identified",
		zap.Int("photos", count),
		zap.Int("failed_photos", len(result.FailedPhotos)),
		zap.Int("parts", len(result.Parts)),
		zap.Duration("elapsed", time.Since(start)))

	return result
}

// processPhoto detects parts in one photo and verifies every detection.
// An error means the photo contributed nothing.
func (b *batchIdentifier) processPhoto(ctx context.Context, index int, load photoLoader) ([]models.VerifiedPart, error) {
	photo, err := load(index)
	if err != nil {
		return nil, err
	}

	img, err := imageutil.Decode(photo.Data)
	if err != nil {
		return nil, err
	}

	detectStart := time.Now()
	detections, err := b.detector.Detect(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	b.metrics.RecordDetections(len(detections), time.Since(detectStart))

	if len(detections) == 0 {
		return []models.VerifiedPart{}, nil
	}

	items := make([]llm.WorkItem[indexedPart], len(detections))
	indexByID := make(map[string]int, len(detections))
	for i, detection := range detections {
		id := fmt.Sprintf("photo-%d-detection-%d", index, i)
		indexByID[id] = i
		items[i] = llm.WorkItem[indexedPart]{
			ID: id,
			Execute: func(ctx context.Context) (indexedPart, error) {
				return indexedPart{index: i, part: b.verifier.Verify(ctx, detection, img, index)}, nil
			},
		}
	}

	results := llm.Process(ctx, b.verifyPool, items, nil)

	parts := make([]indexedPart, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			// The verifier itself failed; keep the detection as an unverified part.
			detIndex := indexByID[r.ID]
			d := detections[detIndex]
			parts = append(parts, indexedPart{index: detIndex, part: models.VerifiedPart{
				Name:                d.Label,
				Label:               d.Label,
				Quantity:            1,
				Source:              models.SourceTagVerificationFailed,
				DetectionConfidence: d.Confidence,
				PhotoIndex:          index,
			}})
			continue
		}
		parts = append(parts, r.Result)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	verified := make([]models.VerifiedPart, len(parts))
	for i, p := range parts {
		verified[i] = p.part
	}
	return verified, nil
}
