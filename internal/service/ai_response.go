package service

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrNoJSONObject = errors.New("no json object found in model response")

// extractJSONObject returns the first balanced, valid JSON object embedded in
// raw. Models often wrap their JSON in prose or markdown fences.
func extractJSONObject(raw string) (string, error) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end > 0 {
			candidate := raw[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
