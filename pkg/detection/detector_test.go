package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

func TestDetector_Detect(t *testing.T) {
	mock := llm.NewMockVisionClient()
	var captured *llm.ImageRequest
	mock.AnalyzeImageFunc = func(ctx context.Context, req *llm.ImageRequest) (*llm.GenerateResponseResult, error) {
		captured = req
		return &llm.GenerateResponseResult{
			Content: "```json\n{\"detections\": [{\"label\": \"red brick\", \"box_2d\": [100, 100, 200, 200]}]}\n```",
		}, nil
	}

	detector := NewDetector(mock, zap.NewNop())
	photo := models.Photo{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}

	detections, err := detector.Detect(context.Background(), photo)
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "red brick", detections[0].Label)

	assert.Equal(t, 1, mock.AnalyzeImageCalls())
	require.NotNil(t, captured)
	assert.Equal(t, photo.Data, captured.Image)
	assert.Equal(t, "image/jpeg", captured.MIMEType)
	assert.Contains(t, captured.Prompt, "box_2d")
	assert.NotEmpty(t, captured.SystemMessage)
}

func TestDetector_Detect_VisionFailure(t *testing.T) {
	boom := errors.New("connection refused")
	mock := llm.NewMockVisionClient()
	mock.AnalyzeImageFunc = func(ctx context.Context, req *llm.ImageRequest) (*llm.GenerateResponseResult, error) {
		return nil, boom
	}

	detections, err := NewDetector(mock, zap.NewNop()).Detect(context.Background(), models.Photo{Data: []byte{1}})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, detections)
}

func TestDetector_Detect_UnparseableResponse(t *testing.T) {
	mock := llm.NewMockVisionClientWithResponse("I see a pile of colorful bricks!")

	detections, err := NewDetector(mock, zap.NewNop()).Detect(context.Background(), models.Photo{Data: []byte{1}})
	assert.ErrorIs(t, err, llm.ErrNoJSON)
	assert.NotNil(t, detections)
	assert.Empty(t, detections)
}

func TestDetector_Detect_EmptyDetections(t *testing.T) {
	mock := llm.NewMockVisionClientWithResponse(`{"detections": []}`)

	detections, err := NewDetector(mock, zap.NewNop()).Detect(context.Background(), models.Photo{Data: []byte{1}})
	require.NoError(t, err)
	assert.Empty(t, detections)
}
