package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/brickwise/brickwise-engine/pkg/geometry"
	"github.com/brickwise/brickwise-engine/pkg/jsonutil"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

// ResponseShape identifies which layout a detection response used.
type ResponseShape int

const (
	ShapeUnrecognized ResponseShape = iota
	ShapeDetections                 // {"detections": [...]}
	ShapeParts                      // {"parts": [...]}
	ShapeArray                      // [...]
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeDetections:
		return "detections"
	case ShapeParts:
		return "parts"
	case ShapeArray:
		return "array"
	default:
		return "unrecognized"
	}
}

// ParsedResponse is the resolved form of a detection response: its shape and
// the raw list items it carried.
type ParsedResponse struct {
	Shape ResponseShape
	Items []json.RawMessage
}

// ParseResponse extracts the JSON payload from model text and resolves its shape.
// Rules are tried in order: detections object, parts object, bare array.
func ParseResponse(content string) (ParsedResponse, error) {
	jsonStr, err := llm.ExtractJSON(content)
	if err != nil {
		return ParsedResponse{}, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &items); err == nil {
		return ParsedResponse{Shape: ShapeArray, Items: items}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return ParsedResponse{}, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}

	for _, rule := range []struct {
		key   string
		shape ResponseShape
	}{
		{"detections", ShapeDetections},
		{"parts", ShapeParts},
	} {
		raw, ok := obj[rule.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		return ParsedResponse{Shape: rule.shape, Items: items}, nil
	}

	return ParsedResponse{Shape: ShapeUnrecognized}, ErrUnrecognizedResponse
}

// ParseDetections converts model text into raw detections. Items that are not
// JSON objects are skipped.
func ParseDetections(content string) ([]models.RawDetection, error) {
	parsed, err := ParseResponse(content)
	if err != nil {
		return []models.RawDetection{}, err
	}

	detections := make([]models.RawDetection, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		var item map[string]json.RawMessage
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		detections = append(detections, parseItem(item))
	}
	return detections, nil
}

func parseItem(item map[string]json.RawMessage) models.RawDetection {
	return models.RawDetection{
		Label:      itemLabel(item),
		Box:        itemBox(item),
		Confidence: itemConfidence(item),
	}
}

func itemLabel(item map[string]json.RawMessage) string {
	var label string
	for _, key := range []string{"label", "name", "description"} {
		if v := strings.TrimSpace(jsonutil.FlexibleStringValue(item[key])); v != "" {
			label = v
			break
		}
	}

	// Some answers put the color in its own field.
	color := strings.TrimSpace(jsonutil.FlexibleStringValue(item["color"]))
	if color != "" && !strings.Contains(strings.ToLower(label), strings.ToLower(color)) {
		if label == "" {
			return color
		}
		return color + " " + label
	}
	return label
}

func itemBox(item map[string]json.RawMessage) geometry.NormalizedBox {
	for _, key := range []string{"box_2d", "box", "bbox", "bounding_box"} {
		raw, ok := item[key]
		if !ok {
			continue
		}
		if box, ok := boxFromArray(raw); ok {
			return box
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err == nil {
			return boxFromFields(fields)
		}
	}
	return boxFromFields(item)
}

func boxFromArray(raw json.RawMessage) (geometry.NormalizedBox, bool) {
	var coords []json.RawMessage
	if err := json.Unmarshal(raw, &coords); err != nil {
		return geometry.NormalizedBox{}, false
	}
	if len(coords) != 4 {
		return geometry.NormalizedBox{}, true
	}
	return geometry.NormalizedBox{
		YMin: jsonutil.FlexibleFloatPtr(coords[0]),
		XMin: jsonutil.FlexibleFloatPtr(coords[1]),
		YMax: jsonutil.FlexibleFloatPtr(coords[2]),
		XMax: jsonutil.FlexibleFloatPtr(coords[3]),
	}, true
}

func boxFromFields(fields map[string]json.RawMessage) geometry.NormalizedBox {
	return geometry.NormalizedBox{
		YMin: jsonutil.FlexibleFloatPtr(fields["ymin"]),
		XMin: jsonutil.FlexibleFloatPtr(fields["xmin"]),
		YMax: jsonutil.FlexibleFloatPtr(fields["ymax"]),
		XMax: jsonutil.FlexibleFloatPtr(fields["xmax"]),
	}
}

func itemConfidence(item map[string]json.RawMessage) *int {
	v, ok := jsonutil.FlexibleFloatValue(item["confidence"])
	if !ok || math.IsNaN(v) {
		return nil
	}
	c := int(math.Round(math.Max(0, math.Min(100, v))))
	return &c
}
