// Package condition provides the two small pieces of "expression"
// tooling the engine needs: extracting typed attributes out of a step's
// opaque attribute bag, and optionally syntax-checking guard strings.
// Grounded in a gjson-based config resolver and a cel-go syntax
// checker, adapted here to a build-time, non-executing role.
package condition

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/lyzr/petrinet/pkg/model"
)

// StringSlice extracts a string array attribute (e.g. "paths" or
// "branches") from a step's Attributes bag.
func StringSlice(attrs model.Attributes, path string) ([]string, error) {
	if attrs.IsEmpty() {
		return nil, nil
	}
	result := gjson.GetBytes(attrs, path)
	if !result.Exists() {
		return nil, nil
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("attribute %q is not an array", path)
	}
	var out []string
	for _, v := range result.Array() {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("attribute %q must contain only strings", path)
		}
		out = append(out, v.String())
	}
	return out, nil
}

// String extracts a string-valued attribute, returning "" if absent.
func String(attrs model.Attributes, path string) string {
	if attrs.IsEmpty() {
		return ""
	}
	return gjson.GetBytes(attrs, path).String()
}

// Bool extracts a boolean-valued attribute, defaulting to false.
func Bool(attrs model.Attributes, path string) bool {
	if attrs.IsEmpty() {
		return false
	}
	return gjson.GetBytes(attrs, path).Bool()
}
