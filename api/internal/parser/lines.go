package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"vkr-topics/api/internal/topic"
)

// ParseLines is the permissive step for replies without usable JSON.
//
// A line that starts with a digit and contains '.' opens a topic titled with the
// text after the first '.'. Following lines fill the open topic by keyword, first
// match wins: description, keywords, methodology, expected results. A later line
// of the same category overwrites an earlier one. Other lines are ignored.
func ParseLines(raw string, req topic.GenerationRequest) []topic.Record {
	topics := []topic.Record{}
	var cur *topic.Record

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if startsTopic(line) {
			if cur != nil {
				topics = append(topics, *cur)
			}
			_, title, _ := strings.Cut(line, ".")
			rec := topic.NewRecord(req, strings.TrimSpace(title))
			cur = &rec
			continue
		}
		if cur == nil {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "актуальность") || strings.Contains(lower, "описание"):
			cur.Description = line
		case strings.Contains(lower, "ключевые слова") || strings.Contains(lower, "keywords"):
			kw := line
			if _, rest, ok := strings.Cut(line, ":"); ok {
				kw = rest
			}
			cur.Keywords = SplitKeywords(kw)
		case strings.Contains(lower, "метод"):
			cur.Methodology = line
		case strings.Contains(lower, "результат"):
			cur.ExpectedResults = line
		}
	}
	if cur != nil {
		topics = append(topics, *cur)
	}
	return capTo(topics, req.Count)
}

func startsTopic(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsDigit(r) && strings.Contains(line, ".")
}
