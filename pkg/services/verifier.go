package services

import (
	"context"
	"errors"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/classifier"
	"github.com/brickwise/brickwise-engine/pkg/colors"
	"github.com/brickwise/brickwise-engine/pkg/geometry"
	"github.com/brickwise/brickwise-engine/pkg/imageutil"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/logging"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

// PartClassifier maps an image crop to ranked catalog part candidates.
type PartClassifier interface {
	Classify(ctx context.Context, image []byte) ([]classifier.Match, error)
}

// PartImageLookup resolves the catalog image for a part in a color.
type PartImageLookup interface {
	PartColorDetails(ctx context.Context, partNum string, colorID int) (*models.PartColorDetails, error)
}

// RegionVerifierConfig tunes region verification.
type RegionVerifierConfig struct {
	MinCropSize int // Minimum crop edge in pixels (default geometry.DefaultMinCropSize)
	JPEGQuality int // Quality of crops sent to the classifier
}

// RegionVerifier turns one raw detection into a VerifiedPart.
type RegionVerifier interface {
	Verify(ctx context.Context, detection models.RawDetection, img image.Image, photoIndex int) models.VerifiedPart
}

type regionVerifier struct {
	classifier PartClassifier
	images     PartImageLookup
	config     RegionVerifierConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewRegionVerifier creates a RegionVerifier. images may be nil, in which case
// verified parts without a classifier image fall back to the crop.
func NewRegionVerifier(
	classifier PartClassifier,
	images PartImageLookup,
	config RegionVerifierConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) RegionVerifier {
	if config.MinCropSize <= 0 {
		config.MinCropSize = geometry.DefaultMinCropSize
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = imageutil.DefaultJPEGQuality
	}
	return &regionVerifier{
		classifier: classifier,
		images:     images,
		config:     config,
		metrics:    m,
		logger:     logger.Named("region-verifier"),
	}
}

var _ RegionVerifier = (*regionVerifier)(nil)

// Verify crops the detected region and asks the classifier for its identity.
// It never returns an error: every failure becomes a tagged fallback part.
func (v *regionVerifier) Verify(ctx context.Context, detection models.RawDetection, img image.Image, photoIndex int) models.VerifiedPart {
	part := v.verify(ctx, detection, img, photoIndex)
	v.metrics.RecordVerification(part.Source.String())
	return part
}

func (v *regionVerifier) verify(ctx context.Context, detection models.RawDetection, img image.Image, photoIndex int) models.VerifiedPart {
	part := models.VerifiedPart{
		Name:                detection.Label,
		Quantity:            1,
		Label:               detection.Label,
		DetectionConfidence: detection.Confidence,
		PhotoIndex:          photoIndex,
	}

	if !detection.Box.IsComplete() || img == nil {
		part.Source = models.SourceTagNoBoundingBox
		return part
	}

	crop, err := imageutil.CropBox(img, detection.Box, v.config.MinCropSize)
	switch {
	case errors.Is(err, geometry.ErrBoxTooSmall):
		part.Source = models.SourceTagBoundingBoxTooSmall
		return part
	case err != nil:
		part.Source = models.SourceTagNoBoundingBox
		return part
	}

	jpeg, err := imageutil.EncodeJPEG(crop, v.config.JPEGQuality)
	if err != nil {
		v.logger.Warn("Failed to encode crop",
			zap.Int("photo_index", photoIndex),
			zap.Error(err))
		part.Source = models.SourceTagVerificationFailed
		return part
	}
	cropURI := llm.DataURI(jpeg, "image/jpeg")

	matches, err := v.classifier.Classify(ctx, jpeg)
	if err != nil || len(matches) == 0 {
		if err != nil {
			v.logger.Warn("Classifier failed, using crop as fallback",
				zap.Int("photo_index", photoIndex),
				zap.String("label", detection.Label),
				zap.String("error", logging.SanitizeError(err)))
		}
		part.Source = models.SourceTagVerificationFailed
		part.ImageURL = &cropURI
		return part
	}

	top := matches[0]
	partNum := top.ID
	part.PartNum = &partNum
	if top.Name != "" {
		part.Name = top.Name
	}
	part.ConfidenceScore = confidenceFromScore(top.Score)
	part.ColorID = colors.Resolve(detection.Label)
	part.Source = models.SourceTagVerified

	imageURL := top.ImageURL
	if imageURL == "" {
		imageURL = v.catalogImage(ctx, partNum, part.ColorID)
	}
	if imageURL == "" {
		imageURL = cropURI
	}
	part.ImageURL = &imageURL

	return part
}

// catalogImage returns the catalog image for the part in its color, or "" when unknown.
func (v *regionVerifier) catalogImage(ctx context.Context, partNum string, colorID *int) string {
	if v.images == nil || colorID == nil {
		return ""
	}
	details, err := v.images.PartColorDetails(ctx, partNum, *colorID)
	if err != nil {
		v.logger.Debug("Catalog image lookup failed",
			zap.String("part_num", partNum),
			zap.Int("color_id", *colorID),
			zap.String("error", logging.SanitizeError(err)))
		return ""
	}
	return details.PartImgURL
}

// confidenceFromScore converts a [0,1] similarity score to a 0-100 confidence.
func confidenceFromScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(1, score)) * 100))
}
