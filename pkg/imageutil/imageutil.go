// Package imageutil decodes uploaded photos and produces JPEG crops of detected regions.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/geometry"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

// DefaultJPEGQuality is the quality used when encoding crops for the classifier.
const DefaultJPEGQuality = 90

// ParsePhoto turns an uploaded image string into a Photo. Both data URIs
// ("data:image/jpeg;base64,...") and bare base64 payloads are accepted;
// the MIME type of a bare payload is sniffed from its content.
func ParsePhoto(encoded string) (models.Photo, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return models.Photo{}, fmt.Errorf("%w: empty image", apperrors.ErrInvalidImage)
	}

	mimeType := ""
	payload := encoded
	if strings.HasPrefix(encoded, "data:") {
		header, data, ok := strings.Cut(encoded, ",")
		if !ok {
			return models.Photo{}, fmt.Errorf("%w: malformed data URI", apperrors.ErrInvalidImage)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return models.Photo{}, fmt.Errorf("%w: data URI is not base64 encoded", apperrors.ErrInvalidImage)
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return models.Photo{}, fmt.Errorf("%w: empty image", apperrors.ErrInvalidImage)
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return models.Photo{}, fmt.Errorf("%w: unsupported content type %q", apperrors.ErrInvalidImage, mimeType)
	}

	return models.Photo{Data: data, MIMEType: mimeType}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	// Some clients strip padding.
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("decode base64: %w", err)
}

// Decode decodes photo bytes into an image, honoring EXIF orientation so box
// coordinates line up with what the vision model saw.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}
	return img, nil
}

// CropBox crops img to the region described by a normalized box.
// It returns geometry.ErrNoBoundingBox or geometry.ErrBoxTooSmall when the
// region cannot be cropped.
func CropBox(img image.Image, box geometry.NormalizedBox, minSize int) (image.Image, error) {
	bounds := img.Bounds()
	rect, err := geometry.CropRect(box, bounds.Dx(), bounds.Dy(), minSize)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, rect.Add(bounds.Min)), nil
}

// EncodeJPEG encodes img as JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
