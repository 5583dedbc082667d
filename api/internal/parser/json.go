package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"vkr-topics/api/internal/topic"
)

// topicJSON — поля темы в ответе модели.
type topicJSON struct {
	Title           string
	Description     string
	Keywords        []string
	Methodology     string
	ExpectedResults string
	Difficulty      string
}

// Ключи сравниваются точно: encoding/json по умолчанию сопоставляет их без учёта регистра.
func decodeTopic(raw json.RawMessage) (*topicJSON, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	var t topicJSON
	for key, dst := range map[string]any{
		"title":            &t.Title,
		"description":      &t.Description,
		"keywords":         &t.Keywords,
		"methodology":      &t.Methodology,
		"expected_results": &t.ExpectedResults,
		"difficulty":       &t.Difficulty,
	} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}
	return &t, nil
}

// ExtractJSON returns the substring from the first '{' to the last '}'.
func ExtractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseJSON is the strict step. Syntax errors, a missing or non-list "topics"
// key and mistyped fields all report Failed; "topics": [] is a successful empty parse.
func ParseJSON(raw string, req topic.GenerationRequest) Outcome {
	block, ok := ExtractJSON(raw)
	if !ok {
		return failed(ErrNoJSON)
	}

	var reply map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &reply); err != nil {
		return failed(fmt.Errorf("decode reply JSON: %w", err))
	}
	list, ok := reply["topics"]
	if !ok || string(list) == "null" {
		return failed(ErrBadShape)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return failed(fmt.Errorf("%w: %w", ErrBadShape, err))
	}

	topics := make([]topic.Record, 0, len(items))
	for i, item := range items {
		t, err := decodeTopic(item)
		if err != nil {
			return failed(fmt.Errorf("decode topic %d: %w", i, err))
		}
		if t == nil {
			continue
		}
		rec := topic.NewRecord(req, t.Title)
		rec.Description = t.Description
		rec.Keywords = cleanKeywords(t.Keywords)
		rec.Methodology = t.Methodology
		rec.ExpectedResults = t.ExpectedResults
		if d := strings.TrimSpace(t.Difficulty); d != "" {
			rec.DifficultyLevel = d
		}
		topics = append(topics, rec)
	}
	return parsed(capTo(topics, req.Count))
}
