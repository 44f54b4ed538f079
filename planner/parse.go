package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storyreel/types"
)

// Entry is one key/value pair of the planner's ordered scene mapping.
type Entry struct {
	Key   string
	Value string
}

// Reply forms recognized by ParseSceneMap
const (
	FormFenced = "fenced"
	FormBare   = "bare"
)

// ParseError reports a reply that could not be turned into a scene mapping.
type ParseError struct {
	Form  string
	Reply string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("planner reply (%s JSON) could not be parsed: %v", e.Form, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{types.ErrParse, e.Err} }

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ParseSceneMap extracts the ordered scene-key -> text mapping from a planner
// reply. A fenced ```json block is used when present, otherwise the whole
// reply must be bare JSON. Either an object or an array whose first element
// is an object is accepted. Key order is preserved.
func ParseSceneMap(reply string) ([]Entry, error) {
	form, raw := FormBare, strings.TrimSpace(reply)
	if m := fencedJSONRe.FindStringSubmatch(reply); m != nil {
		form, raw = FormFenced, strings.TrimSpace(m[1])
	}

	entries, err := decodeOrdered(raw)
	if err != nil {
		return nil, &ParseError{Form: form, Reply: reply, Err: err}
	}
	return entries, nil
}

func decodeOrdered(raw string) ([]Entry, error) {
	if raw == "" {
		return nil, errors.New("empty reply")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok {
	case json.Delim('{'):
	case json.Delim('['):
		if !dec.More() {
			return nil, errors.New("empty array")
		}
		if tok, err = dec.Token(); err != nil {
			return nil, err
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("expected object inside array, got %v", tok)
		}
	default:
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errors.New("no scenes in reply")
	}
	return entries, nil
}

// Pair zips the scene mapping with the prompt mapping by position into
// 1-based scenes.
func Pair(scenes, prompts []Entry) ([]types.Scene, error) {
	if len(scenes) != len(prompts) {
		return nil, fmt.Errorf("%w: %d scenes but %d picture prompts", types.ErrParse, len(scenes), len(prompts))
	}

	out := make([]types.Scene, len(scenes))
	for i, s := range scenes {
		if strings.TrimSpace(s.Value) == "" {
			return nil, fmt.Errorf("%w: scene %q is empty", types.ErrParse, s.Key)
		}
		out[i] = types.Scene{
			Index:  i + 1,
			Key:    s.Key,
			Text:   s.Value,
			Prompt: strings.TrimSpace(prompts[i].Value),
		}
	}
	return out, nil
}
