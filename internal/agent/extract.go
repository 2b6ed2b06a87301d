package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSON = errors.New("no JSON found in response")

// extract returns the span from the first open delimiter to the last close
// delimiter. Models often wrap JSON in prose or markdown fences.
func extract(raw string, open, closing byte) (string, error) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, closing)
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return raw[start : end+1], nil
}

// decodeObject decodes the JSON object embedded in raw into v.
func decodeObject(raw string, v any) error {
	s, err := extract(raw, '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode response object: %w", err)
	}
	return nil
}

// decodeArray decodes the JSON array embedded in raw into v.
func decodeArray(raw string, v any) error {
	s, err := extract(raw, '[', ']')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode response array: %w", err)
	}
	return nil
}
