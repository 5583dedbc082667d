package prompt

import (
	"strings"

	"vkr-topics/api/internal/topic"
)

const (
	maxExistingTopics     = 10
	maxRecentPublications = 3
)

// FormatStudentContext renders the student profile, one populated field per line.
func FormatStudentContext(p *topic.StudentPreferences) string {
	if p.IsEmpty() {
		return ""
	}
	var parts []string
	parts = appendList(parts, "Области интересов студента", p.Interests)
	parts = appendList(parts, "Навыки студента", p.Skills)
	parts = appendList(parts, "Карьерные цели", p.CareerGoals)
	parts = appendList(parts, "Предпочитаемые технологии", p.PreferredTechnologies)
	parts = appendValue(parts, "Стиль работы", p.WorkStyle)
	parts = appendValue(parts, "Предпочтение сложности", p.ComplexityPreference)
	return strings.Join(parts, "\n")
}

// FormatDepartmentContext renders the department profile. Publications are capped to 3.
func FormatDepartmentContext(c *topic.DepartmentContext) string {
	if c == nil {
		return ""
	}
	var parts []string
	parts = appendList(parts, "Направления исследований кафедры", c.ResearchDirections)
	parts = appendList(parts, "Доступные ресурсы", c.AvailableResources)
	parts = appendList(parts, "Экспертиза научных руководителей", c.SupervisorExpertise)
	parts = appendList(parts, "Недавние публикации", head(c.RecentPublications, maxRecentPublications))
	return strings.Join(parts, "\n")
}

// FormatDuplicateAvoidance lists up to 10 existing topics the model must not repeat.
// Empty unless avoid is set and the department has existing topics.
func FormatDuplicateAvoidance(avoid bool, c *topic.DepartmentContext) string {
	if !avoid || c == nil || len(c.ExistingTopics) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("ВАЖНО: Избегай дублирования с существующими темами на кафедре:\n")
	for _, t := range head(c.ExistingTopics, maxExistingTopics) {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteByte('\n')
	}
	b.WriteString("\nГенерируй только новые, уникальные темы, которые не пересекаются с перечисленными выше.")
	return b.String()
}

// FormatPersonalization — короткие подсказки по интересам, навыкам и карьерным целям.
func FormatPersonalization(p *topic.StudentPreferences) string {
	if p == nil {
		return ""
	}
	var hints []string
	if len(p.Interests) > 0 {
		hints = append(hints, "учитывай интересы студента")
	}
	if len(p.Skills) > 0 {
		hints = append(hints, "соответствуй навыкам студента")
	}
	if len(p.CareerGoals) > 0 {
		hints = append(hints, "способствуй достижению карьерных целей")
	}
	if len(hints) == 0 {
		return ""
	}
	return "Персонализируй темы, чтобы они " + strings.Join(hints, ", ") + "."
}

func appendList(parts []string, label string, values []string) []string {
	if len(values) == 0 {
		return parts
	}
	return append(parts, label+": "+strings.Join(values, ", "))
}

func appendValue(parts []string, label, value string) []string {
	if value == "" {
		return parts
	}
	return append(parts, label+": "+value)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
