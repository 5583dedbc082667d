// Command topicgen reads a generation request as JSON and prints the generated topics as JSON.
//
//	echo '{"field":"Информатика","count":3}' | topicgen -in - -model openai:gpt-4o-mini
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/sirupsen/logrus"

	"vkr-topics/api/internal/config"
	"vkr-topics/api/internal/generator"
	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/llm/engines"
	"vkr-topics/api/internal/prompt"
	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

type output struct {
	Topics         []topic.Record `json:"topics"`
	TotalCount     int            `json:"total_count"`
	ModelUsed      string         `json:"model_used"`
	RequestID      string         `json:"request_id"`
	GenerationTime float64        `json:"generation_time"`
	SavedIDs       []int64        `json:"saved_ids,omitempty"`
}

type app struct {
	cfg       *config.Config
	log       *logrus.Entry
	newEngine func(selector string, keys engines.Keys) (llm.Engine, error)
	openStore func(ctx context.Context, dsn string) (*store.TopicRepo, func() error, error)
	stdin     io.Reader
	stdout    io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	// stdout занят JSON-ответом
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:       cfg,
		log:       logger.WithField("component", "topicgen"),
		newEngine: engines.New,
		openStore: openStore,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		a.log.WithError(err).Error("topicgen failed")
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("topicgen", flag.ContinueOnError)
	var (
		model          = fs.String("model", a.cfg.DefaultModel, `model selector "<provider>:<model>"`)
		in             = fs.String("in", "", "request JSON file, - for stdin")
		count          = fs.Int("count", 0, "number of topics (overrides request)")
		field          = fs.String("field", "", "field of study (overrides request)")
		level          = fs.String("level", "", "education level: bachelor | master | postgraduate | specialist")
		specialization = fs.String("specialization", "", "specialization (overrides request)")
		lang           = fs.String("lang", "", "output language code (overrides request)")
		save           = fs.Bool("save", false, "store generated topics in DATABASE_URL")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := topic.NewRequest("", 0)
	if *in != "" {
		var err error
		if req, err = a.readRequest(*in); err != nil {
			return err
		}
	}
	if *field != "" {
		req.Field = *field
	}
	if *count > 0 {
		req.Count = *count
	}
	if *specialization != "" {
		req.Specialization = *specialization
	}
	if *lang != "" {
		req.Language = *lang
	}
	if *level != "" {
		l, err := topic.ParseLevel(*level)
		if err != nil {
			return err
		}
		req.Level = l
	}
	req.Count = a.cfg.ClampCount(req.Count)

	system, err := prompt.LoadSystemPrompt(a.cfg.PromptDir)
	if err != nil {
		return err
	}
	eng, err := a.newEngine(*model, a.cfg.Keys())
	if err != nil {
		return err
	}
	gen := generator.New(eng, prompt.NewBuilder(system), a.log.WithField("component", "generator"),
		generator.WithTemperature(a.cfg.Temperature))

	res, err := gen.Run(ctx, req)
	if err != nil {
		return err
	}

	out := output{
		Topics:         res.Topics,
		TotalCount:     len(res.Topics),
		ModelUsed:      res.Model,
		RequestID:      res.RequestID,
		GenerationTime: res.Duration.Seconds(),
	}
	// темы уже сгенерированы: печатаем их и при ошибке сохранения
	var saveErr error
	if *save && len(res.Topics) > 0 {
		if out.SavedIDs, saveErr = a.save(ctx, req.Normalize(), res); saveErr != nil {
			saveErr = fmt.Errorf("save topics: %w", saveErr)
		}
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return saveErr
}

// readRequest накладывает JSON поверх значений по умолчанию.
func (a *app) readRequest(path string) (topic.GenerationRequest, error) {
	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return topic.GenerationRequest{}, err
		}
		defer f.Close()
		r = f
	}
	req := topic.NewRequest("", 0)
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return topic.GenerationRequest{}, fmt.Errorf("decode request %s: %w", path, err)
	}
	if req.Level != "" && !req.Level.Valid() {
		l, err := topic.ParseLevel(string(req.Level))
		if err != nil {
			return topic.GenerationRequest{}, err
		}
		req.Level = l
	}
	return req, nil
}

func (a *app) save(ctx context.Context, req topic.GenerationRequest, res generator.Result) ([]int64, error) {
	dsn := strings.TrimSpace(a.cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("-save needs DATABASE_URL")
	}
	repo, closeFn, err := a.openStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()
	return repo.CreateBatch(ctx, res.Topics, store.Meta{
		RequestID: res.RequestID,
		ModelUsed: res.Model,
		Params:    req,
	})
}

func openStore(ctx context.Context, dsn string) (*store.TopicRepo, func() error, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	repo := store.NewTopicRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db.Close, nil
}
