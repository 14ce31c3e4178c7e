package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON accepts any JSON value. Objects contribute their "start",
// "end" and "text" members; only JSON numbers count as numbers, everything
// else leaves the field unset so Normalize applies the defaults.
func (r *RawWord) UnmarshalJSON(data []byte) error {
	*r = RawWord{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// not an object: every field takes its default
		return nil
	}

	r.Start = jsonNumber(fields["start"])
	r.End = jsonNumber(fields["end"])
	r.Text = jsonText(fields["text"])
	return nil
}

func jsonNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	c := raw[0]
	if c != '-' && (c < '0' || c > '9') {
		return nil
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil
	}
	return &v
}

// text takes the string form a JavaScript caller would see: strings as is,
// null or missing means absent, everything else is stringified
func jsonText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := jsString(raw)
	return &s
}

func jsString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return string(raw)
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = jsString(item)
		}
		return strings.Join(parts, ",")
	case '{':
		return "[object Object]"
	}
	if v := jsonNumber(raw); v != nil {
		return jsNumber(*v)
	}
	return string(raw)
}

// jsNumber spells a float the way Number.prototype.toString does for the
// common ranges: plain decimals, exponent form outside [1e-6, 1e21).
func jsNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + exp
}

// RawWordsFromJSON decodes a JSON array of loosely typed word objects
// without applying defaults. An object with a "words" array (the shape the
// transcribe endpoint returns) is accepted too.
func RawWordsFromJSON(data []byte) ([]RawWord, error) {
	var raw []RawWord
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapper struct {
			Words []RawWord `json:"words"`
		}
		if werr := json.Unmarshal(data, &wrapper); werr != nil || wrapper.Words == nil {
			return nil, fmt.Errorf("failed to decode words: %w", err)
		}
		raw = wrapper.Words
	}
	if raw == nil {
		raw = []RawWord{}
	}
	return raw, nil
}

// WordsFromJSON is RawWordsFromJSON with the field defaults applied.
func WordsFromJSON(data []byte) ([]Word, error) {
	raw, err := RawWordsFromJSON(data)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raw), nil
}

// WordsToJSON encodes words as an indented JSON array.
func WordsToJSON(words []Word) ([]byte, error) {
	if words == nil {
		words = []Word{}
	}
	return json.MarshalIndent(words, "", "  ")
}
