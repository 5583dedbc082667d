package telegram

import (
	"slices"
	"sync"

	"vkr-topics/api/internal/topic"
)

const modeAwaitField = "await_field"

// session — последний запрос чата и уже показанные темы, для кнопки «Ещё темы».
type session struct {
	Req   topic.GenerationRequest
	Shown []string
}

type chatState struct {
	modes    sync.Map // chatID -> string
	models   sync.Map // chatID -> selector
	sessions sync.Map // chatID -> session
}

func (s *chatState) setMode(chatID int64, mode string) { s.modes.Store(chatID, mode) }
func (s *chatState) clearMode(chatID int64)            { s.modes.Delete(chatID) }
func (s *chatState) mode(chatID int64) string {
	if v, ok := s.modes.Load(chatID); ok {
		if m, _ := v.(string); m != "" {
			return m
		}
	}
	return ""
}

func (s *chatState) setModel(chatID int64, selector string) { s.models.Store(chatID, selector) }
func (s *chatState) model(chatID int64, def string) string {
	if v, ok := s.models.Load(chatID); ok {
		return v.(string)
	}
	return def
}

// remember хранит показанные темы, новые первыми.
func (s *chatState) remember(chatID int64, req topic.GenerationRequest, topics []topic.Record) {
	shown := make([]string, 0, len(topics))
	for _, t := range topics {
		shown = append(shown, t.Title)
	}
	if v, ok := s.sessions.Load(chatID); ok {
		prev := v.(session)
		if prev.Req.Field == req.Field {
			for _, t := range prev.Shown {
				if !slices.Contains(shown, t) {
					shown = append(shown, t)
				}
			}
		}
	}
	s.sessions.Store(chatID, session{Req: req, Shown: shown})
}

func (s *chatState) last(chatID int64) (session, bool) {
	v, ok := s.sessions.Load(chatID)
	if !ok {
		return session{}, false
	}
	return v.(session), true
}

// prependExisting returns a copy of req whose existing topics start with titles.
// В промпт попадают только первые десять, поэтому показанные в чате идут впереди.
func prependExisting(req topic.GenerationRequest, titles []string) topic.GenerationRequest {
	return mergeExisting(req, titles, true)
}

// appendExisting returns a copy of req whose existing topics end with titles.
func appendExisting(req topic.GenerationRequest, titles []string) topic.GenerationRequest {
	return mergeExisting(req, titles, false)
}

func mergeExisting(req topic.GenerationRequest, titles []string, front bool) topic.GenerationRequest {
	if len(titles) == 0 {
		return req
	}
	var dc topic.DepartmentContext
	if req.DepartmentContext != nil {
		dc = *req.DepartmentContext
	}
	first, rest := dc.ExistingTopics, titles
	if front {
		first, rest = titles, dc.ExistingTopics
	}
	merged := make([]string, 0, len(first)+len(rest))
	for _, t := range slices.Concat(first, rest) {
		if !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	dc.ExistingTopics = merged
	req.DepartmentContext = &dc
	req.AvoidDuplicates = true
	return req
}
