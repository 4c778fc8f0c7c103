// Package jsonutil decodes loosely-typed JSON values produced by generative services.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// the vision model returns numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleFloatValue converts a json.RawMessage holding a number or a numeric string
// (e.g. "250", " 12.5 ", "87%") to a float64. ok is false for null, empty or non-numeric values.
func FlexibleFloatValue(raw json.RawMessage) (value float64, ok bool) {
	if isNull(raw) {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return 0, false
	}
	strVal = strings.TrimSuffix(strings.TrimSpace(strVal), "%")
	parsed, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// FlexibleFloatPtr is FlexibleFloatValue returning nil when the value is absent or not numeric.
func FlexibleFloatPtr(raw json.RawMessage) *float64 {
	v, ok := FlexibleFloatValue(raw)
	if !ok {
		return nil
	}
	return &v
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
