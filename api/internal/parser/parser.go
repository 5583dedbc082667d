// Package parser turns a model reply into topic records.
//
// Parsing is two explicit steps. ParseJSON is strict: it slices the reply from
// the first '{' to the last '}' and decodes {"topics":[...]}. When it reports a
// failure the caller falls back to ParseLines, a permissive heuristic over
// numbered lines. Both steps inject field, specialization and level from the
// request and never return more than req.Count records.
package parser

import (
	"errors"
	"strings"

	"vkr-topics/api/internal/topic"
)

var (
	ErrNoJSON   = errors.New("no JSON object in reply")
	ErrBadShape = errors.New("reply JSON has no topics list")
)

// Outcome is the tagged result of one parsing step: Parsed(Topics) when OK,
// Failed(Err) otherwise.
type Outcome struct {
	Topics []topic.Record
	OK     bool
	Err    error
}

func parsed(topics []topic.Record) Outcome { return Outcome{Topics: topics, OK: true} }
func failed(err error) Outcome             { return Outcome{Err: err} }

// SplitKeywords splits on commas, trims tokens and drops empty ones.
// "a, b ," → ["a", "b"].
func SplitKeywords(s string) []string {
	return cleanKeywords(strings.Split(s, ","))
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func capTo(topics []topic.Record, n int) []topic.Record {
	if n >= 0 && len(topics) > n {
		return topics[:n]
	}
	return topics
}
