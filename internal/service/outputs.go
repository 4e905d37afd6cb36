package service

import "strings"

const base64Marker = "base64,"

// NormalizeOutputs replaces record["outputs"] with elements of the form
// {"data": "<base64>"}. Non-string elements are kept as they are.
func NormalizeOutputs(record map[string]interface{}) {
	outputs, ok := record["outputs"].([]interface{})
	if !ok || len(outputs) == 0 {
		return
	}

	normalized := make([]interface{}, len(outputs))
	for i, out := range outputs {
		normalized[i] = NormalizeOutput(out)
	}
	record["outputs"] = normalized
}

// NormalizeOutput strips a data-URI style prefix ("image/webp;base64,") from a
// string output and wraps it.
func NormalizeOutput(out interface{}) interface{} {
	s, ok := out.(string)
	if !ok {
		return out
	}
	if i := strings.Index(s, base64Marker); i >= 0 {
		s = s[i+len(base64Marker):]
	}
	return map[string]interface{}{"data": s}
}
