// Package models contains domain types for brickwise-engine.
package models

import (
	"github.com/brickwise/brickwise-engine/pkg/geometry"
)

// SourceTag records how a VerifiedPart's identity was obtained.
type SourceTag string

// Source tag constants. Anything other than SourceTagVerified carries a nil PartNum.
const (
	SourceTagVerified            SourceTag = "verified"
	SourceTagNoBoundingBox       SourceTag = "no-bounding-box"
	SourceTagBoundingBoxTooSmall SourceTag = "bounding-box-too-small"
	SourceTagVerificationFailed  SourceTag = "verification-failed"
)

// String returns the string representation of a SourceTag.
func (s SourceTag) String() string {
	return string(s)
}

// IsValid returns true if the tag is one of the known source tags.
func (s SourceTag) IsValid() bool {
	switch s {
	case SourceTagVerified, SourceTagNoBoundingBox, SourceTagBoundingBoxTooSmall, SourceTagVerificationFailed:
		return true
	default:
		return false
	}
}

// Photo is one uploaded image in an identification batch.
type Photo struct {
	Data     []byte
	MIMEType string
}

// RawDetection is one candidate region proposed by the vision service.
// It has no identity beyond its position in the per-photo list.
type RawDetection struct {
	Label      string                 `json:"label"`
	Box        geometry.NormalizedBox `json:"box"`
	Confidence *int                   `json:"confidence,omitempty"` // 0-100, detector's own estimate
}

// VerifiedPart is the resolved identity of one detected region.
// Quantity is always 1: identical parts in one photo arrive as separate detections.
type VerifiedPart struct {
	PartNum             *string   `json:"part_num"`
	Name                string    `json:"name"`
	ColorID             *int      `json:"color_id"`
	ImageURL            *string   `json:"part_img_url"`
	ConfidenceScore     int       `json:"confidence_score"` // 0-100, from the classifier
	Source              SourceTag `json:"source"`
	Quantity            int       `json:"quantity"`
	Label               string    `json:"label,omitempty"`
	DetectionConfidence *int      `json:"detection_confidence,omitempty"`
	PhotoIndex          int       `json:"photo_index"`
}

// IsIdentified returns true if the part resolved to a catalog part number.
func (p VerifiedPart) IsIdentified() bool {
	return p.PartNum != nil && *p.PartNum != ""
}

// OwnedPart is one entry of the running owned-parts inventory.
// At most one OwnedPart exists per Key().
type OwnedPart struct {
	PartNum    *string `json:"part_num"`
	ColorID    *int    `json:"color_id"`
	Name       string  `json:"name,omitempty"`
	ImageURL   *string `json:"part_img_url,omitempty"`
	Quantity   int     `json:"quantity"`
	Confidence *int    `json:"confidence,omitempty"` // best classifier confidence merged in
}

// PartKey identifies an OwnedPart. A nil part number or color is a valid component.
type PartKey struct {
	PartNum  string
	HasPart  bool
	ColorID  int
	HasColor bool
}

// Key returns the (part number, color) identity of the part.
func (p OwnedPart) Key() PartKey {
	var k PartKey
	if p.PartNum != nil {
		k.PartNum = *p.PartNum
		k.HasPart = true
	}
	if p.ColorID != nil {
		k.ColorID = *p.ColorID
		k.HasColor = true
	}
	return k
}

// EffectiveQuantity returns the quantity, treating missing or non-positive values as 1.
func (p OwnedPart) EffectiveQuantity() int {
	if p.Quantity <= 0 {
		return 1
	}
	return p.Quantity
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
