package telegram

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

// Telegram режет сообщения длиннее 4096 символов; оставляем запас.
const maxMessageRunes = 4000

func formatTopics(req topic.GenerationRequest, topics []topic.Record, ids []int64) string {
	if len(topics) == 0 {
		return "Модель не вернула ни одной темы. Попробуйте переформулировать запрос или сменить модель: /model"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📚 Темы ВКР: %s", req.Field)
	if req.Specialization != "" {
		fmt.Fprintf(&b, ", %s", req.Specialization)
	}
	fmt.Fprintf(&b, " (%s)\n\n", req.Level)

	for i, t := range topics {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
		if i < len(ids) {
			fmt.Fprintf(&b, " [#%d]", ids[i])
		}
		b.WriteString("\n")
		writeDetails(&b, t)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDetails(b *strings.Builder, t topic.Record) {
	line := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fmt.Fprintf(b, "   %s: %s\n", label, v)
		}
	}
	line("Описание", t.Description)
	line("Ключевые слова", strings.Join(t.Keywords, ", "))
	line("Методология", t.Methodology)
	line("Ожидаемые результаты", t.ExpectedResults)
	line("Сложность", t.DifficultyLevel)
}

func formatStored(row store.TopicRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", row.ID, row.Topic.Title)
	fmt.Fprintf(&b, "   %s, %s", row.Topic.Field, row.Topic.Level)
	if row.Topic.Specialization != "" {
		fmt.Fprintf(&b, ", %s", row.Topic.Specialization)
	}
	fmt.Fprintf(&b, "\n   Статус: %s\n", statusLabel(row.Status))
	writeDetails(&b, row.Topic)
	if row.ModelUsed != "" {
		fmt.Fprintf(&b, "   Модель: %s\n", row.ModelUsed)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSearch(rows []store.TopicRow, total int) string {
	if total == 0 {
		return "Ничего не найдено."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Найдено: %d", total)
	if len(rows) < total {
		fmt.Fprintf(&b, " (показаны первые %d)", len(rows))
	}
	b.WriteString("\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "\n#%d %s [%s]", row.ID, row.Topic.Title, statusLabel(row.Status))
	}
	return b.String()
}

func formatStats(st store.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Всего тем: %d\n", st.Total)

	section := func(title string, m map[string]int) {
		if len(m) == 0 {
			return
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		// по убыванию количества, затем по имени
		sort.Slice(keys, func(i, j int) bool {
			if m[keys[i]] != m[keys[j]] {
				return m[keys[i]] > m[keys[j]]
			}
			return keys[i] < keys[j]
		})
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %d\n", k, m[k])
		}
	}

	byLevel := make(map[string]int, len(st.ByLevel))
	for k, v := range st.ByLevel {
		byLevel[string(k)] = v
	}
	byStatus := make(map[string]int, len(st.ByStatus))
	for k, v := range st.ByStatus {
		byStatus[statusLabel(k)] = v
	}
	section("По направлениям", st.ByField)
	section("По уровням", byLevel)
	section("По статусам", byStatus)
	return strings.TrimRight(b.String(), "\n")
}

func statusLabel(s store.Status) string {
	switch s {
	case store.StatusDraft:
		return "черновик"
	case store.StatusApproved:
		return "утверждена"
	case store.StatusRejected:
		return "отклонена"
	case store.StatusArchived:
		return "в архиве"
	}
	return string(s)
}

// splitMessage режет текст на части не длиннее limit рун, по возможности по пустым строкам.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if s := strings.TrimRight(cur.String(), "\n"); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		cur.Reset()
		n = 0
	}
	for _, block := range strings.SplitAfter(text, "\n\n") {
		size := utf8.RuneCountInString(block)
		if n+size > limit {
			flush()
		}
		for size > limit {
			rs := []rune(block)
			out = append(out, string(rs[:limit]))
			block = string(rs[limit:])
			size -= limit
		}
		cur.WriteString(block)
		n += size
	}
	flush()
	return out
}
