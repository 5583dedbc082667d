package topic

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCount — верхняя граница количества тем в одном запросе.
const MaxCount = 20

const DefaultLanguage = "ru"

// Level — уровень образования. Значения хранятся по-русски, как их видит модель и БД.
type Level string

const (
	LevelBachelor     Level = "Бакалавриат"
	LevelMaster       Level = "Магистратура"
	LevelPostgraduate Level = "Аспирантура"
	LevelSpecialist   Level = "Специалитет"
)

var levelAliases = map[string]Level{
	"bachelor":     LevelBachelor,
	"master":       LevelMaster,
	"postgraduate": LevelPostgraduate,
	"specialist":   LevelSpecialist,
	"бакалавриат":  LevelBachelor,
	"магистратура": LevelMaster,
	"аспирантура":  LevelPostgraduate,
	"специалитет":  LevelSpecialist,
}

// ParseLevel accepts the Russian label or the English name, case-insensitive.
// Empty input means Bachelor.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelBachelor, nil
	}
	if l, ok := levelAliases[s]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown education level %q", s)
}

func (l Level) Valid() bool {
	switch l {
	case LevelBachelor, LevelMaster, LevelPostgraduate, LevelSpecialist:
		return true
	}
	return false
}

// StudentPreferences — профиль студента. Пустая строка или пустой список = «не задано».
type StudentPreferences struct {
	Interests             []string `json:"interests,omitempty"`
	Skills                []string `json:"skills,omitempty"`
	CareerGoals           []string `json:"career_goals,omitempty"`
	PreferredTechnologies []string `json:"preferred_technologies,omitempty"`
	WorkStyle             string   `json:"work_style,omitempty"`
	ComplexityPreference  string   `json:"complexity_preference,omitempty"`
}

func (p *StudentPreferences) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.Interests) == 0 && len(p.Skills) == 0 && len(p.CareerGoals) == 0 &&
		len(p.PreferredTechnologies) == 0 && p.WorkStyle == "" && p.ComplexityPreference == ""
}

// DepartmentContext — контекст кафедры.
type DepartmentContext struct {
	ExistingTopics      []string `json:"existing_topics,omitempty"`
	ResearchDirections  []string `json:"research_directions,omitempty"`
	AvailableResources  []string `json:"available_resources,omitempty"`
	SupervisorExpertise []string `json:"supervisor_expertise,omitempty"`
	RecentPublications  []string `json:"recent_publications,omitempty"`
}

// GenerationRequest описывает, какие темы нужно сгенерировать.
// Specialization == "" и nil-указатели означают отсутствие значения.
type GenerationRequest struct {
	Field              string              `json:"field"`
	Specialization     string              `json:"specialization,omitempty"`
	Level              Level               `json:"level"`
	Count              int                 `json:"count"`
	IncludeTrends      bool                `json:"include_trends"`
	IncludeMethodology bool                `json:"include_methodology"`
	Language           string              `json:"language"`
	StudentPreferences *StudentPreferences `json:"student_preferences,omitempty"`
	DepartmentContext  *DepartmentContext  `json:"department_context,omitempty"`
	AvoidDuplicates    bool                `json:"avoid_duplicates"`
}

// NewRequest returns a request with the service defaults.
func NewRequest(field string, count int) GenerationRequest {
	return GenerationRequest{
		Field:              field,
		Level:              LevelBachelor,
		Count:              count,
		IncludeTrends:      true,
		IncludeMethodology: true,
		Language:           DefaultLanguage,
		AvoidDuplicates:    true,
	}
}

// Normalize заполняет пустые язык и уровень значениями по умолчанию.
// Field и Specialization не трогает: записи наследуют их как есть.
func (r GenerationRequest) Normalize() GenerationRequest {
	if strings.TrimSpace(r.Language) == "" {
		r.Language = DefaultLanguage
	}
	if r.Level == "" {
		r.Level = LevelBachelor
	}
	return r
}

func (r GenerationRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Field) == "" {
		errs = append(errs, errors.New("field is required"))
	}
	if r.Count < 1 || r.Count > MaxCount {
		errs = append(errs, fmt.Errorf("count must be in 1..%d, got %d", MaxCount, r.Count))
	}
	if !r.Level.Valid() {
		errs = append(errs, fmt.Errorf("unknown education level %q", r.Level))
	}
	return errors.Join(errs...)
}

// Record — одна сгенерированная тема ВКР.
type Record struct {
	Title           string   `json:"title"`
	Field           string   `json:"field"`
	Specialization  string   `json:"specialization,omitempty"`
	Level           Level    `json:"level"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	Methodology     string   `json:"methodology"`
	ExpectedResults string   `json:"expected_results"`
	DifficultyLevel string   `json:"difficulty_level"`
}

// NewRecord creates a record that carries the request's field, specialization and level.
func NewRecord(req GenerationRequest, title string) Record {
	return Record{
		Title:           title,
		Field:           req.Field,
		Specialization:  req.Specialization,
		Level:           req.Level,
		Keywords:        []string{},
		DifficultyLevel: DefaultDifficulty(req.Language),
	}
}

// DefaultDifficulty — сложность, если модель её не указала.
func DefaultDifficulty(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), "en") {
		return "Medium"
	}
	return "Средняя"
}
