package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brickwise/brickwise-engine/pkg/classifier"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

type mockClassifier struct {
	mu        sync.Mutex
	calls     int
	images    [][]byte
	classifyF func(ctx context.Context, image []byte) ([]classifier.Match, error)
}

func (m *mockClassifier) Classify(ctx context.Context, image []byte) ([]classifier.Match, error) {
	m.mu.Lock()
	m.calls++
	m.images = append(m.images, image)
	m.mu.Unlock()

	if m.classifyF != nil {
		return m.classifyF(ctx, image)
	}
	return []classifier.Match{}, nil
}

func (m *mockClassifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func classifierReturning(matches ...classifier.Match) *mockClassifier {
	return &mockClassifier{classifyF: func(ctx context.Context, image []byte) ([]classifier.Match, error) {
		return matches, nil
	}}
}

type mockImageLookup struct {
	calls    int
	detailsF func(ctx context.Context, partNum string, colorID int) (*models.PartColorDetails, error)
}

func (m *mockImageLookup) PartColorDetails(ctx context.Context, partNum string, colorID int) (*models.PartColorDetails, error) {
	m.calls++
	return m.detailsF(ctx, partNum, colorID)
}

type mockDetector struct {
	mu      sync.Mutex
	calls   int
	detectF func(ctx context.Context, photo models.Photo) ([]models.RawDetection, error)
}

func (m *mockDetector) Detect(ctx context.Context, photo models.Photo) ([]models.RawDetection, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.detectF(ctx, photo)
}

type mockCatalog struct {
	mu           sync.Mutex
	setsCalls    []string
	colorCalls   []string
	setsByPart   map[string][]models.SetContainingPart // key: "part/color"
	setsErr      map[string]error
	colorsByPart map[string][]models.PartColor
	colorsErr    error
}

func (m *mockCatalog) SetsContaining(ctx context.Context, partNum string, colorID int) ([]models.SetContainingPart, error) {
	key := partColorKey(partNum, colorID)
	m.mu.Lock()
	m.setsCalls = append(m.setsCalls, key)
	m.mu.Unlock()

	if err := m.setsErr[key]; err != nil {
		return nil, err
	}
	return m.setsByPart[key], nil
}

func (m *mockCatalog) PartColors(ctx context.Context, partNum string) ([]models.PartColor, error) {
	m.mu.Lock()
	m.colorCalls = append(m.colorCalls, partNum)
	m.mu.Unlock()

	if m.colorsErr != nil {
		return nil, m.colorsErr
	}
	return m.colorsByPart[partNum], nil
}

func partColorKey(partNum string, colorID int) string {
	return partNum + "/" + strconv.Itoa(colorID)
}

// testImage returns a decoded-equivalent RGBA image of the given size.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	return img
}

// testPNG encodes a test image as PNG bytes.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}
