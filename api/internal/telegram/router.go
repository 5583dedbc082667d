package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"vkr-topics/api/internal/generator"
	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

// Sender — часть *tgbotapi.BotAPI, которой пользуется роутер.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Generator interface {
	Run(ctx context.Context, req topic.GenerationRequest) (generator.Result, error)
	Model() string
}

// GeneratorFactory builds a generator for a "<provider>:<model>" selector.
type GeneratorFactory func(selector string) (Generator, error)

// TopicStore — то, что роутеру нужно от хранилища тем.
type TopicStore interface {
	CreateBatch(ctx context.Context, recs []topic.Record, meta store.Meta) ([]int64, error)
	RecentTitles(ctx context.Context, field string, limit int) ([]string, error)
	Get(ctx context.Context, id int64) (store.TopicRow, error)
	Search(ctx context.Context, sq store.SearchQuery) ([]store.TopicRow, int, error)
	UpdateStatus(ctx context.Context, id int64, status store.Status) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (store.Stats, error)
}

const (
	defaultTimeout   = 2 * time.Minute
	recentTitlesSize = 10
	dbTimeout        = 5 * time.Second
)

type Router struct {
	Bot          Sender
	Log          *logrus.Entry
	NewGenerator GeneratorFactory
	DefaultModel string

	// Repo == nil — темы не сохраняются, команды хранилища отключены.
	Repo       TopicStore
	Ping       func(context.Context) error
	ClampCount func(int) int
	Timeout    time.Duration

	gens  sync.Map // selector -> Generator
	state chatState
}

func (r *Router) log() *logrus.Entry {
	if r.Log == nil {
		return logrus.WithField("component", "telegram")
	}
	return r.Log
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.state.clearMode(cid)
		r.HandleCommand(msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	// ждём направление после голого /topics
	if r.state.mode(cid) == modeAwaitField {
		r.state.clearMode(cid)
		r.handleTopics(cid, text)
		return
	}
	r.send(cid, helpText)
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.handleHealth(cid)
	case "topics":
		if args == "" {
			r.state.setMode(cid, modeAwaitField)
			r.send(cid, "Напишите направление подготовки, например: Информатика; 5; магистратура; Машинное обучение")
			return
		}
		r.handleTopics(cid, args)
	case "model":
		r.handleModel(cid, args)
	case "search":
		r.handleSearch(cid, args)
	case "stats":
		r.handleStats(cid)
	case "topic":
		r.handleShow(cid, args)
	case "approve":
		r.handleStatus(cid, args, store.StatusApproved)
	case "reject":
		r.handleStatus(cid, args, store.StatusRejected)
	case "archive":
		r.handleStatus(cid, args, store.StatusArchived)
	case "delete":
		r.handleDelete(cid, args)
	default:
		r.send(cid, "Неизвестная команда. Список команд: /help")
	}
}

func (r *Router) handleHealth(cid int64) {
	if r.Ping == nil {
		r.send(cid, "✅ OK")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		r.send(cid, "⚠️ db: not ok\n"+err.Error())
		return
	}
	r.send(cid, "✅ OK")
}

func (r *Router) handleTopics(cid int64, args string) {
	a, err := parseTopicsArgs(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error()+"\n\n"+topicsUsage)
		return
	}
	req := topic.NewRequest(a.Field, r.clamp(a.Count))
	req.Level = a.Level
	req.Specialization = a.Specialization
	r.generate(cid, req)
}

// generate запускает генерацию, сохраняет результат (если есть хранилище) и отправляет ответ.
func (r *Router) generate(cid int64, req topic.GenerationRequest) {
	gen, err := r.generatorFor(cid)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	ctx, cancel := r.context()
	defer cancel()

	req = r.withExistingTopics(ctx, req)
	r.send(cid, fmt.Sprintf("⏳ Генерирую темы (%s)…", gen.Model()))

	res, err := gen.Run(ctx, req)
	if err != nil {
		r.log().WithError(err).WithField("chat_id", cid).Error("generation failed")
		r.send(cid, userError(err))
		return
	}
	r.state.remember(cid, req, res.Topics)

	ids := r.save(ctx, req, res)
	chunks := splitMessage(formatTopics(req, res.Topics, ids), maxMessageRunes)
	for i, chunk := range chunks {
		m := tgbotapi.NewMessage(cid, chunk)
		if i == len(chunks)-1 && len(res.Topics) > 0 {
			m.ReplyMarkup = makeMoreKeyboard()
		}
		if _, err := r.Bot.Send(m); err != nil {
			r.log().WithError(err).WithField("chat_id", cid).Warn("send failed")
		}
	}
}

// withExistingTopics добавляет недавние темы из БД в список «не повторять».
func (r *Router) withExistingTopics(ctx context.Context, req topic.GenerationRequest) topic.GenerationRequest {
	if r.Repo == nil || !req.AvoidDuplicates {
		return req
	}
	titles, err := r.Repo.RecentTitles(ctx, req.Field, recentTitlesSize)
	if err != nil {
		r.log().WithError(err).Warn("recent titles lookup failed")
		return req
	}
	return appendExisting(req, titles)
}

func (r *Router) save(ctx context.Context, req topic.GenerationRequest, res generator.Result) []int64 {
	if r.Repo == nil || len(res.Topics) == 0 {
		return nil
	}
	ids, err := r.Repo.CreateBatch(ctx, res.Topics, store.Meta{
		RequestID: res.RequestID,
		ModelUsed: res.Model,
		Params:    req,
	})
	if err != nil {
		r.log().WithError(err).WithField("request_id", res.RequestID).Warn("topics not saved")
		return nil
	}
	return ids
}

func (r *Router) handleModel(cid int64, args string) {
	if args == "" {
		r.send(cid, "Текущая модель: "+r.state.model(cid, r.DefaultModel)+
			"\nИспользование: /model <provider>:<model>, провайдеры: openai | anthropic | openrouter | gemini")
		return
	}
	gen, err := r.generatorBySelector(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	r.state.setModel(cid, args)
	r.send(cid, "✅ Модель: "+gen.Model())
}

func (r *Router) generatorFor(cid int64) (Generator, error) {
	return r.generatorBySelector(r.state.model(cid, r.DefaultModel))
}

func (r *Router) generatorBySelector(sel string) (Generator, error) {
	if v, ok := r.gens.Load(sel); ok {
		return v.(Generator), nil
	}
	if r.NewGenerator == nil {
		return nil, fmt.Errorf("%w: generator factory is not set", llm.ErrInvalidConfiguration)
	}
	gen, err := r.NewGenerator(sel)
	if err != nil {
		return nil, err
	}
	v, _ := r.gens.LoadOrStore(sel, gen)
	return v.(Generator), nil
}

func (r *Router) clamp(n int) int {
	if r.ClampCount != nil {
		return r.ClampCount(n)
	}
	if n <= 0 {
		return 5
	}
	return min(n, topic.MaxCount)
}

func (r *Router) context() (context.Context, context.CancelFunc) {
	t := r.Timeout
	if t <= 0 {
		t = defaultTimeout
	}
	return context.WithTimeout(context.Background(), t)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().WithError(err).WithField("chat_id", chatID).Warn("send failed")
	}
}

// userError переводит ошибку генерации в сообщение для пользователя.
func userError(err error) string {
	switch {
	case errors.Is(err, generator.ErrInvalidRequest):
		return "❌ Некорректный запрос: " + err.Error()
	case errors.Is(err, llm.ErrInvalidConfiguration):
		return "❌ Модель не настроена: " + err.Error()
	case errors.Is(err, llm.ErrModelUnavailable):
		return "⚠️ Модель сейчас недоступна, попробуйте позже или выберите другую: /model"
	default:
		return "❌ Не удалось сгенерировать темы. Попробуйте ещё раз."
	}
}
