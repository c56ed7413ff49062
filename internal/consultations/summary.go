package consultations

import (
	"bytes"

	"github.com/goccy/go-json"
)

const assessmentKey = "overallAssessment"

// DeriveSummary turns the raw ai_summary field into display text.
//
// The field arrives in one of four shapes:
//   - absent or null: no summary
//   - a string holding JSON: decoded, then handled as below
//   - a plain string: used verbatim
//   - an object: its overallAssessment if present, else the object as compact JSON
//
// A string whose content decodes to something other than an object is used
// verbatim. DeriveSummary never fails; anything it cannot decode is treated as
// plain text.
func DeriveSummary(raw json.RawMessage) (summary string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			summary, ok = string(raw), true
		}
	}()

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw), true
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) > 0 && inner[0] == '{' {
			if text, isObject := fromObject(inner); isObject {
				return text, true
			}
		}
		return s, true
	case '{':
		if text, isObject := fromObject(raw); isObject {
			return text, true
		}
		return string(raw), true
	default:
		return compact(raw), true
	}
}

// fromObject extracts the assessment from a JSON object. isObject is false when
// b does not decode as an object.
func fromObject(b []byte) (text string, isObject bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", false
	}

	if v, found := obj[assessmentKey]; found && !falsy(v) {
		v = bytes.TrimSpace(v)
		if v[0] != '"' {
			return compact(v), true
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, true
		}
	}
	return compact(b), true
}

// falsy reports whether v is an assessment to ignore: null, false, zero or "".
func falsy(v []byte) bool {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return true
	}
	switch v[0] {
	case 'n':
		return bytes.Equal(v, []byte("null"))
	case 'f':
		return bytes.Equal(v, []byte("false"))
	case '"':
		var s string
		return json.Unmarshal(v, &s) == nil && s == ""
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		return json.Unmarshal(v, &f) == nil && f == 0
	}
	return false
}

func compact(b []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}
