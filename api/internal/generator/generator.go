package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/parser"
	"vkr-topics/api/internal/prompt"
	"vkr-topics/api/internal/topic"
	"vkr-topics/api/internal/util"
)

var (
	ErrGenerationFailed = errors.New("topic generation failed")
	ErrInvalidRequest   = errors.New("invalid generation request")
)

const responsePreviewRunes = 200

// Generator sequences prompt building, the model call and response parsing.
// It holds no mutable state and may be shared between goroutines.
type Generator struct {
	engine      llm.Engine
	builder     *prompt.Builder
	log         *logrus.Entry
	temperature float32
}

type Option func(*Generator)

func WithTemperature(t float32) Option {
	return func(g *Generator) { g.temperature = t }
}

func New(engine llm.Engine, builder *prompt.Builder, log *logrus.Entry, opts ...Option) *Generator {
	if builder == nil {
		builder = prompt.NewBuilder("")
	}
	if log == nil {
		log = logrus.WithField("component", "generator")
	}
	g := &Generator{
		engine:      engine,
		builder:     builder,
		log:         log,
		temperature: llm.DefaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns "<provider>:<model>" of the underlying engine.
func (g *Generator) Model() string {
	return g.engine.Name() + ":" + g.engine.GetModel()
}

// Result — темы и метаданные одного вызова.
type Result struct {
	RequestID string
	Topics    []topic.Record
	Model     string
	Duration  time.Duration
	// Degraded is set when the reply had no usable JSON and the line heuristics were used.
	Degraded bool
}

// Generate returns at most req.Count topics. An empty list is not an error.
func (g *Generator) Generate(ctx context.Context, req topic.GenerationRequest) ([]topic.Record, error) {
	res, err := g.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Topics, nil
}

// GenerateSimple builds a default request from the four basic parameters.
func (g *Generator) GenerateSimple(ctx context.Context, field string, count int, specialization string, level topic.Level) ([]topic.Record, error) {
	req := topic.NewRequest(field, count)
	req.Specialization = specialization
	if level != "" {
		req.Level = level
	}
	return g.Generate(ctx, req)
}

// Run is Generate with request metadata for callers that persist or report it.
func (g *Generator) Run(ctx context.Context, req topic.GenerationRequest) (Result, error) {
	started := time.Now()
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	res := Result{RequestID: uuid.NewString(), Model: g.Model()}
	log := g.log.WithFields(logrus.Fields{
		"request_id": res.RequestID,
		"field":      req.Field,
		"count":      req.Count,
		"model":      res.Model,
	})

	msgs := g.builder.Build(req)
	log.WithField("prompt_chars", len([]rune(msgs.System))+len([]rune(msgs.User))).Info("generating topics")
	log.Debugf("user prompt:\n%s", msgs.User)

	raw, err := g.engine.Complete(ctx, msgs, g.temperature)
	if err != nil {
		log.WithError(err).Error("model call failed")
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	log.WithField("response_chars", len([]rune(raw))).Debugf("model reply: %s", util.TruncateRunes(raw, responsePreviewRunes))

	res.Topics, res.Degraded = g.parse(raw, req, log)
	res.Duration = time.Since(started)
	log.WithFields(logrus.Fields{
		"topics":   len(res.Topics),
		"degraded": res.Degraded,
		"elapsed":  res.Duration.Round(time.Millisecond).String(),
	}).Info("topics generated")
	return res, nil
}

// parse runs the strict JSON step and falls back to the line heuristics only when it fails.
func (g *Generator) parse(raw string, req topic.GenerationRequest, log *logrus.Entry) ([]topic.Record, bool) {
	out := parser.ParseJSON(raw, req)
	if out.OK {
		return out.Topics, false
	}
	log.WithError(out.Err).Warn("parse degraded: no usable JSON, falling back to line parser")

	topics := parser.ParseLines(raw, req)
	if len(topics) == 0 {
		log.Warn("no topics recognised in model reply")
	}
	return topics, true
}
