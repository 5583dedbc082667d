package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkr-topics/api/internal/topic"
)

func TestMergeExistingOrder(t *testing.T) {
	req := topic.NewRequest("Физика", 3)
	req.DepartmentContext = &topic.DepartmentContext{ExistingTopics: []string{"A", "B"}}

	front := prependExisting(req, []string{"C", "A"})
	assert.Equal(t, []string{"C", "A", "B"}, front.DepartmentContext.ExistingTopics)

	back := appendExisting(req, []string{"C", "A"})
	assert.Equal(t, []string{"A", "B", "C"}, back.DepartmentContext.ExistingTopics)

	// исходный запрос не меняется
	assert.Equal(t, []string{"A", "B"}, req.DepartmentContext.ExistingTopics)
	assert.Same(t, req.DepartmentContext, appendExisting(req, nil).DepartmentContext)
}

func TestRememberKeepsNewestFirst(t *testing.T) {
	var s chatState
	req := topic.NewRequest("Физика", 2)

	s.remember(1, req, []topic.Record{{Title: "A"}, {Title: "B"}})
	s.remember(1, req, []topic.Record{{Title: "C"}, {Title: "A"}})
	got, ok := s.last(1)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, got.Shown)

	// другое направление начинает список заново
	s.remember(1, topic.NewRequest("Химия", 2), []topic.Record{{Title: "X"}})
	got, _ = s.last(1)
	assert.Equal(t, []string{"X"}, got.Shown)
}
