package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

func TestFormatTopics(t *testing.T) {
	req := topic.NewRequest("Информатика", 2)
	req.Specialization = "ML"
	rec := topic.NewRecord(req, "Нейросети")
	rec.Keywords = []string{"a", "b"}
	rec.Methodology = "эксперимент"

	got := formatTopics(req, []topic.Record{rec, topic.NewRecord(req, "Второе")}, []int64{11, 12})
	assert.Equal(t, `📚 Темы ВКР: Информатика, ML (Бакалавриат)

1. Нейросети [#11]
   Ключевые слова: a, b
   Методология: эксперимент
   Сложность: Средняя

2. Второе [#12]
   Сложность: Средняя`, got)
}

func TestFormatTopicsEmpty(t *testing.T) {
	got := formatTopics(topic.NewRequest("Физика", 3), nil, nil)
	assert.Contains(t, got, "/model")
}

func TestSplitMessageShort(t *testing.T) {
	assert.Equal(t, []string{"abc"}, splitMessage("abc", 10))
}

func TestSplitMessageOnBlocks(t *testing.T) {
	text := "aaaa\n\nbbbb\n\ncccc"
	got := splitMessage(text, 12)
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, got)
}

func TestSplitMessageHardCut(t *testing.T) {
	text := strings.Repeat("я", 25)
	got := splitMessage(text, 10)
	require.Len(t, got, 3)
	assert.Equal(t, text, strings.Join(got, ""))
	for _, part := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(part), 10)
	}
}

func TestSplitMessageRespectsLimit(t *testing.T) {
	var blocks []string
	for i := 0; i < 200; i++ {
		blocks = append(blocks, strings.Repeat("тема ", 10+i%7))
	}
	text := strings.Join(blocks, "\n\n")
	got := splitMessage(text, maxMessageRunes)
	require.Greater(t, len(got), 1)
	for _, part := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(part), maxMessageRunes)
		assert.NotEmpty(t, strings.TrimSpace(part))
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats(store.Stats{
		Total:    3,
		ByField:  map[string]int{"Физика": 1, "Информатика": 2},
		ByLevel:  map[topic.Level]int{topic.LevelBachelor: 3},
		ByStatus: map[store.Status]int{store.StatusDraft: 3},
	})
	assert.Equal(t, `Всего тем: 3

По направлениям:
  Информатика: 2
  Физика: 1

По уровням:
  Бакалавриат: 3

По статусам:
  черновик: 3`, got)
}

func TestFormatSearch(t *testing.T) {
	assert.Equal(t, "Ничего не найдено.", formatSearch(nil, 0))

	rows := []store.TopicRow{{ID: 4, Topic: topic.Record{Title: "A"}, Status: store.StatusApproved}}
	assert.Equal(t, "Найдено: 5 (показаны первые 1)\n\n#4 A [утверждена]", formatSearch(rows, 5))
}
