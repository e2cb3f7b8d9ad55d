// Package llmjson recovers a JSON object from model output that may be
// wrapped in prose or markdown fences.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparsable matches every *UnparsableError via errors.Is.
var ErrUnparsable = errors.New("unparsable model response")

// UnparsableError keeps the raw text for diagnostics.
type UnparsableError struct {
	Raw string
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("%s (%d bytes)", ErrUnparsable, len(e.Raw))
}

func (e *UnparsableError) Is(target error) bool { return target == ErrUnparsable }

var braceSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Recover tries, in order: the trimmed text as is, the greedy span from the
// first '{' to the last '}' found by regexp, and the slice between the first
// '{' index and the last '}' index. The first candidate that decodes to a JSON
// object wins.
func Recover(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	if obj, ok := decodeObject(text); ok {
		return obj, nil
	}

	if span := braceSpan.FindString(text); span != "" {
		if obj, ok := decodeObject(span); ok {
			return obj, nil
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last != -1 && first < last {
		if obj, ok := decodeObject(text[first : last+1]); ok {
			return obj, nil
		}
	}

	return nil, &UnparsableError{Raw: raw}
}

// decodeObject accepts exactly one JSON object and nothing else.
func decodeObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
