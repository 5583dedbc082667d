package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/topic"
)

// SystemPromptFile is looked up inside PROMPT_DIR.
const SystemPromptFile = "topics.system.txt"

// Builder turns a generation request into the system and user messages.
// It is immutable and safe for concurrent use.
type Builder struct {
	system string
}

// NewBuilder uses system as the system-instruction template; empty means DefaultSystemPrompt.
func NewBuilder(system string) *Builder {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	return &Builder{system: system}
}

// LoadSystemPrompt reads <dir>/topics.system.txt. A missing dir or file yields the default prompt.
func LoadSystemPrompt(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return DefaultSystemPrompt, nil
	}
	p := filepath.Join(dir, SystemPromptFile)
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSystemPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("read system prompt %s: %w", p, err)
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s, nil
	}
	return DefaultSystemPrompt, nil
}

// Build returns the system and user messages for req. It never calls the model.
func (b *Builder) Build(req topic.GenerationRequest) llm.Messages {
	system := strings.ReplaceAll(b.system, "{language}", languageClause(req.Language))
	return llm.Messages{System: system, User: buildUser(req)}
}

func buildUser(req topic.GenerationRequest) string {
	specialization := ""
	if req.Specialization != "" {
		specialization = ", специализация: " + req.Specialization
	}
	trends := ""
	if req.IncludeTrends {
		trends = trendsClause
	}
	methodology := ""
	if req.IncludeMethodology {
		methodology = methodologyClause
	}

	r := strings.NewReplacer(
		"{count}", strconv.Itoa(req.Count),
		"{field}", req.Field,
		"{specialization}", specialization,
		"{level}", string(req.Level),
		"{trends}", trends,
		"{methodology}", methodology,
		"{student_context}", FormatStudentContext(req.StudentPreferences),
		"{department_context}", FormatDepartmentContext(req.DepartmentContext),
		"{duplicate_avoidance}", FormatDuplicateAvoidance(req.AvoidDuplicates, req.DepartmentContext),
		"{personalization}", FormatPersonalization(req.StudentPreferences),
	)

	lines := make([]string, 0, len(userTemplate))
	for _, tpl := range userTemplate {
		line := r.Replace(tpl)
		if tpl != "" && strings.TrimSpace(line) == "" {
			continue
		}
		// две пустые строки подряд не нужны
		if line == "" && len(lines) > 0 && lines[len(lines)-1] == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func languageClause(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "ru":
		return "на русском языке"
	case "en":
		return "на английском языке"
	default:
		return fmt.Sprintf("на языке %q", lang)
	}
}
