package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkr-topics/api/internal/config"
	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/llm/engines"
	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

type stubEngine struct {
	reply string
	user  string
}

func (s *stubEngine) Name() string     { return "stub" }
func (s *stubEngine) GetModel() string { return "v1" }
func (s *stubEngine) Complete(_ context.Context, msgs llm.Messages, _ float32) (string, error) {
	s.user = msgs.User
	return s.reply, nil
}

func newApp(eng *stubEngine, stdin string) (*app, *bytes.Buffer, *string) {
	logger, _ := test.NewNullLogger()
	out := &bytes.Buffer{}
	selector := new(string)
	return &app{
		cfg: &config.Config{
			DefaultModel:        "stub:v1",
			Temperature:         0.7,
			DefaultTopicsCount:  5,
			MaxTopicsPerRequest: 10,
		},
		log: logrus.NewEntry(logger),
		newEngine: func(sel string, _ engines.Keys) (llm.Engine, error) {
			*selector = sel
			return eng, nil
		},
		stdin:  strings.NewReader(stdin),
		stdout: out,
	}, out, selector
}

func decodeOutput(t *testing.T, b *bytes.Buffer) output {
	t.Helper()
	var out output
	require.NoError(t, json.Unmarshal(b.Bytes(), &out))
	return out
}

func TestRunFromStdin(t *testing.T) {
	eng := &stubEngine{reply: `{"topics":[{"title":"A","keywords":["x"]},{"title":"B"}]}`}
	a, buf, sel := newApp(eng, `{"field":"Информатика","count":2,"level":"master","include_trends":false}`)

	require.NoError(t, a.run(context.Background(), []string{"-in", "-", "-model", "openai:gpt"}))

	assert.Equal(t, "openai:gpt", *sel)
	out := decodeOutput(t, buf)
	assert.Equal(t, 2, out.TotalCount)
	assert.Equal(t, "stub:v1", out.ModelUsed)
	assert.NotEmpty(t, out.RequestID)
	require.Len(t, out.Topics, 2)
	assert.Equal(t, "Информатика", out.Topics[0].Field)
	assert.Equal(t, topic.LevelMaster, out.Topics[0].Level)
	assert.Equal(t, []string{"x"}, out.Topics[0].Keywords)
	assert.Contains(t, eng.user, `"Информатика"`)
}

func TestRunFlagsOnlyUsesDefaults(t *testing.T) {
	eng := &stubEngine{reply: `{"topics":[]}`}
	a, buf, sel := newApp(eng, "")

	require.NoError(t, a.run(context.Background(), []string{"-field", "Физика", "-specialization", "Оптика"}))

	assert.Equal(t, "stub:v1", *sel)
	assert.Contains(t, eng.user, "Сгенерируй 5 тем")
	assert.Contains(t, eng.user, "специализация: Оптика")
	out := decodeOutput(t, buf)
	assert.Equal(t, 0, out.TotalCount)
	assert.NotNil(t, out.Topics)
	assert.Contains(t, buf.String(), `"topics": []`)
}

func TestRunClampsCount(t *testing.T) {
	eng := &stubEngine{reply: `{"topics":[]}`}
	a, _, _ := newApp(eng, "")

	require.NoError(t, a.run(context.Background(), []string{"-field", "Физика", "-count", "15"}))
	assert.Contains(t, eng.user, "Сгенерируй 10 тем")
}

func TestRunReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"field":"Право","count":1}`), 0o600))

	eng := &stubEngine{reply: "1. Тема\nМетоды: анализ"}
	a, buf, _ := newApp(eng, "")

	require.NoError(t, a.run(context.Background(), []string{"-in", path}))
	out := decodeOutput(t, buf)
	require.Len(t, out.Topics, 1)
	assert.Equal(t, "Тема", out.Topics[0].Title)
	assert.Equal(t, "Методы: анализ", out.Topics[0].Methodology)
}

func TestRunErrors(t *testing.T) {
	eng := &stubEngine{reply: `{"topics":[]}`}

	a, _, _ := newApp(eng, `{"field":"X","colour":"red"}`)
	assert.ErrorContains(t, a.run(context.Background(), []string{"-in", "-"}), "colour")

	a, _, _ = newApp(eng, "")
	assert.Error(t, a.run(context.Background(), []string{"-field", "X", "-level", "doctor"}))

	a, _, _ = newApp(eng, "")
	assert.Error(t, a.run(context.Background(), []string{}), "field is required")

	a, _, _ = newApp(&stubEngine{reply: `{"topics":[{"title":"A"}]}`}, "")
	assert.ErrorContains(t, a.run(context.Background(), []string{"-field", "X", "-save"}), "DATABASE_URL")
}

func TestRunPrintsTopicsWhenSaveFails(t *testing.T) {
	eng := &stubEngine{reply: `{"topics":[{"title":"A"},{"title":"B"}]}`}
	a, buf, _ := newApp(eng, "")
	a.cfg.DatabaseURL = "postgres://db/vkr"
	a.openStore = func(context.Context, string) (*store.TopicRepo, func() error, error) {
		return nil, nil, errors.New("connection refused")
	}

	err := a.run(context.Background(), []string{"-field", "X", "-count", "2", "-save"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")

	out := decodeOutput(t, buf)
	assert.Equal(t, 2, out.TotalCount)
	require.Len(t, out.Topics, 2)
	assert.Empty(t, out.SavedIDs)
}
