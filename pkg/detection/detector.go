// Package detection asks a vision model for every part candidate in a photo and
// parses its loosely structured answer into raw detections.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/prompts"
)

// ErrUnrecognizedResponse is returned when the model answered with JSON of an unknown shape.
var ErrUnrecognizedResponse = errors.New("unrecognized detection response")

// Detector enumerates part candidates in a photo with a single vision call.
type Detector struct {
	client        llm.VisionClient
	prompt        string
	systemMessage string
	logger        *zap.Logger
}

// NewDetector creates a Detector using the standard detection prompt.
func NewDetector(client llm.VisionClient, logger *zap.Logger) *Detector {
	return &Detector{
		client:        client,
		prompt:        prompts.BuildDetectionPrompt(),
		systemMessage: prompts.DetectionSystemMessage,
		logger:        logger.Named("detector"),
	}
}

// Detect returns the raw detections for one photo. A vision failure or an
// unparseable answer yields an empty list together with the error; the caller
// decides how to log it.
func (d *Detector) Detect(ctx context.Context, photo models.Photo) ([]models.RawDetection, error) {
	start := time.Now()

	result, err := d.client.AnalyzeImage(ctx, &llm.ImageRequest{
		Prompt:        d.prompt,
		SystemMessage: d.systemMessage,
		Image:         photo.Data,
		MIMEType:      photo.MIMEType,
	})
	if err != nil {
		return []models.RawDetection{}, fmt.Errorf("vision request: %w", err)
	}

	detections, err := ParseDetections(result.Content)
	if err != nil {
		d.logger.Debug("Unparseable detection response",
			zap.Int("content_len", len(result.Content)),
			zap.Error(err))
		return []models.RawDetection{}, fmt.Errorf("parse detections: %w", err)
	}

	d.logger.Debug("Detection complete",
		zap.String("model", d.client.GetModel()),
		zap.Int("detections", len(detections)),
		zap.Duration("elapsed", time.Since(start)))

	return detections, nil
}
