package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/topic"
)

const helpText = `Генератор тем ВКР.

/topics <направление> [; количество] [; уровень] [; специализация]
  например: /topics Информатика; 5; магистратура; Машинное обучение
/model [provider:model] — показать или сменить модель
/search <текст> — поиск по сохранённым темам
/topic <id> — показать тему
/approve <id>, /reject <id>, /archive <id> — сменить статус
/delete <id> — удалить тему
/stats — статистика
/health — проверка сервиса`

const topicsUsage = "Использование: /topics <направление> [; количество] [; уровень] [; специализация]\n" +
	"Уровни: бакалавриат | магистратура | аспирантура | специалитет"

type topicsArgs struct {
	Field          string
	Count          int // 0 — значение по умолчанию
	Level          topic.Level
	Specialization string
}

// parseTopicsArgs разбирает "<field> [; count] [; level] [; specialization]".
func parseTopicsArgs(s string) (topicsArgs, error) {
	parts := strings.Split(s, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	a := topicsArgs{Field: parts[0], Level: topic.LevelBachelor}
	if a.Field == "" {
		return a, errors.New("не указано направление")
	}
	if len(parts) > 4 {
		return a, errors.New("слишком много параметров")
	}
	if len(parts) > 1 && parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			return a, fmt.Errorf("количество должно быть положительным числом, получено %q", parts[1])
		}
		a.Count = n
	}
	if len(parts) > 2 && parts[2] != "" {
		l, err := topic.ParseLevel(parts[2])
		if err != nil {
			return a, err
		}
		a.Level = l
	}
	if len(parts) > 3 {
		a.Specialization = parts[3]
	}
	return a, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("ожидался id темы, получено %q", s)
	}
	return id, nil
}

func (r *Router) requireRepo(cid int64) bool {
	if r.Repo == nil {
		r.send(cid, "Хранилище тем не настроено.")
		return false
	}
	return true
}

func (r *Router) handleSearch(cid int64, query string) {
	if !r.requireRepo(cid) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	rows, total, err := r.Repo.Search(ctx, store.SearchQuery{Query: query, Limit: 10})
	if err != nil {
		r.log().WithError(err).Error("search failed")
		r.send(cid, "❌ Поиск не удался.")
		return
	}
	r.send(cid, formatSearch(rows, total))
}

func (r *Router) handleStats(cid int64) {
	if !r.requireRepo(cid) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	st, err := r.Repo.Stats(ctx)
	if err != nil {
		r.log().WithError(err).Error("stats failed")
		r.send(cid, "❌ Статистика недоступна.")
		return
	}
	r.send(cid, formatStats(st))
}

func (r *Router) handleShow(cid int64, args string) {
	if !r.requireRepo(cid) {
		return
	}
	id, err := parseID(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	row, err := r.Repo.Get(ctx, id)
	if err != nil {
		r.send(cid, repoError(err))
		return
	}
	r.send(cid, formatStored(row))
}

func (r *Router) handleStatus(cid int64, args string, status store.Status) {
	if !r.requireRepo(cid) {
		return
	}
	id, err := parseID(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := r.Repo.UpdateStatus(ctx, id, status); err != nil {
		r.send(cid, repoError(err))
		return
	}
	r.send(cid, fmt.Sprintf("✅ Тема #%d: %s", id, statusLabel(status)))
}

func (r *Router) handleDelete(cid int64, args string) {
	if !r.requireRepo(cid) {
		return
	}
	id, err := parseID(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := r.Repo.Delete(ctx, id); err != nil {
		r.send(cid, repoError(err))
		return
	}
	r.send(cid, fmt.Sprintf("🗑 Тема #%d удалена", id))
}

func repoError(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "Тема не найдена."
	}
	return "❌ Ошибка хранилища: " + err.Error()
}
