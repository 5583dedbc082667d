package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vkr-topics/api/internal/topic"
)

var ErrNotFound = errors.New("topic not found")

type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	SourceGenerated    = "ai_generated"
)

type TopicRepo struct{ DB *sql.DB }

func NewTopicRepo(db *sql.DB) *TopicRepo { return &TopicRepo{DB: db} }

// Meta — метаданные генерации, сохраняемые вместе с темой.
type Meta struct {
	RequestID string
	ModelUsed string
	Params    topic.GenerationRequest
	Source    string
}

// TopicRow — сохранённая тема.
type TopicRow struct {
	ID        int64
	Topic     topic.Record
	Status    Status
	Source    string
	ModelUsed string
	RequestID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SearchQuery struct {
	Query  string
	Field  string
	Level  topic.Level
	Status Status
	Limit  int
	Offset int
}

type Stats struct {
	Total    int
	ByField  map[string]int
	ByLevel  map[topic.Level]int
	ByStatus map[Status]int
}

const schema = `
create table if not exists vkr_topics (
  id                bigserial primary key,
  title             varchar(200) not null,
  field             varchar(100) not null,
  specialization    varchar(100),
  level             varchar(32)  not null,
  description       text,
  keywords          jsonb not null default '[]',
  methodology       text,
  expected_results  text,
  difficulty_level  varchar(50),
  status            varchar(16)  not null default 'draft',
  source            varchar(50)  not null default 'ai_generated',
  model_used        varchar(100),
  generation_params jsonb,
  request_id        varchar(100),
  created_at        timestamptz not null default now(),
  updated_at        timestamptz not null default now()
);
create index if not exists vkr_topics_field_idx on vkr_topics(field);
create index if not exists vkr_topics_level_idx on vkr_topics(level);
create index if not exists vkr_topics_status_idx on vkr_topics(status);
create index if not exists vkr_topics_request_idx on vkr_topics(request_id);`

// EnsureSchema создаёт таблицу и индексы, если их ещё нет.
func (r *TopicRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Create сохраняет тему со статусом draft и возвращает её id.
func (r *TopicRepo) Create(ctx context.Context, rec topic.Record, meta Meta) (int64, error) {
	return insertTopic(ctx, r.DB, rec, meta)
}

// CreateBatch сохраняет все темы одного запроса в одной транзакции.
func (r *TopicRepo) CreateBatch(ctx context.Context, recs []topic.Record, meta Meta) ([]int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		id, err := insertTopic(ctx, tx, rec, meta)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// queryRower — *sql.DB или *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTopic(ctx context.Context, db queryRower, rec topic.Record, meta Meta) (int64, error) {
	kw, err := json.Marshal(nonNil(rec.Keywords))
	if err != nil {
		return 0, err
	}
	params, err := json.Marshal(meta.Params)
	if err != nil {
		return 0, err
	}
	source := meta.Source
	if source == "" {
		source = SourceGenerated
	}
	const q = `
insert into vkr_topics (
  title, field, specialization, level, description, keywords,
  methodology, expected_results, difficulty_level, status,
  source, model_used, generation_params, request_id
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
returning id`
	var id int64
	err = db.QueryRowContext(ctx, q,
		rec.Title, rec.Field, rec.Specialization, string(rec.Level), rec.Description, kw,
		rec.Methodology, rec.ExpectedResults, rec.DifficultyLevel, string(StatusDraft),
		source, meta.ModelUsed, params, meta.RequestID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert topic: %w", err)
	}
	return id, nil
}

const selectColumns = `
select id, title, field, coalesce(specialization,''), level,
       coalesce(description,''), keywords,
       coalesce(methodology,''), coalesce(expected_results,''),
       coalesce(difficulty_level,''), status, source,
       coalesce(model_used,''), coalesce(request_id,''),
       created_at, updated_at
from vkr_topics`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(s rowScanner) (TopicRow, error) {
	var (
		row    TopicRow
		level  string
		status string
		kw     []byte
	)
	err := s.Scan(&row.ID, &row.Topic.Title, &row.Topic.Field, &row.Topic.Specialization, &level,
		&row.Topic.Description, &kw,
		&row.Topic.Methodology, &row.Topic.ExpectedResults,
		&row.Topic.DifficultyLevel, &status, &row.Source,
		&row.ModelUsed, &row.RequestID,
		&row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return TopicRow{}, err
	}
	row.Topic.Level = topic.Level(level)
	row.Status = Status(status)
	row.Topic.Keywords = []string{}
	if len(kw) > 0 {
		// битый jsonb — оставляем пустой список
		_ = json.Unmarshal(kw, &row.Topic.Keywords)
	}
	return row, nil
}

func (r *TopicRepo) Get(ctx context.Context, id int64) (TopicRow, error) {
	row, err := scanTopic(r.DB.QueryRowContext(ctx, selectColumns+` where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return TopicRow{}, ErrNotFound
	}
	return row, err
}

// Search ищет по подстроке (ILIKE) в названии, описании и методологии с фильтрами и пагинацией.
// Возвращает страницу и общее число совпадений.
func (r *TopicRepo) Search(ctx context.Context, sq SearchQuery) ([]TopicRow, int, error) {
	where, args := buildSearch(sq)
	limit, offset := pageBounds(sq)

	var total int
	if err := r.DB.QueryRowContext(ctx, `select count(*) from vkr_topics`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count topics: %w", err)
	}

	q := fmt.Sprintf("%s%s order by created_at desc, id desc limit $%d offset $%d",
		selectColumns, where, len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search topics: %w", err)
	}
	defer rows.Close()

	out := []TopicRow{}
	for rows.Next() {
		row, err := scanTopic(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// RecentTitles — последние названия тем по направлению; используются для борьбы с дублями.
func (r *TopicRepo) RecentTitles(ctx context.Context, field string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `select title from vkr_topics where field = $1 and status <> 'rejected'
order by created_at desc limit $2`
	rows, err := r.DB.QueryContext(ctx, q, field, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// UpdateStatus меняет статус темы и обновляет updated_at.
func (r *TopicRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown topic status %q", status)
	}
	const q = `update vkr_topics set status=$2, updated_at=now() where id=$1`
	res, err := r.DB.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TopicRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `delete from vkr_topics where id=$1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats — количество тем всего и в разрезе направления, уровня и статуса.
func (r *TopicRepo) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByField:  map[string]int{},
		ByLevel:  map[topic.Level]int{},
		ByStatus: map[Status]int{},
	}
	if err := r.DB.QueryRowContext(ctx, `select count(*) from vkr_topics`).Scan(&st.Total); err != nil {
		return Stats{}, err
	}
	groups := []struct {
		col string
		put func(string, int)
	}{
		{"field", func(k string, n int) { st.ByField[k] = n }},
		{"level", func(k string, n int) { st.ByLevel[topic.Level(k)] = n }},
		{"status", func(k string, n int) { st.ByStatus[Status(k)] = n }},
	}
	for _, g := range groups {
		if err := r.countBy(ctx, g.col, g.put); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

func (r *TopicRepo) countBy(ctx context.Context, col string, put func(string, int)) error {
	rows, err := r.DB.QueryContext(ctx, `select `+col+`, count(*) from vkr_topics group by `+col)
	if err != nil {
		return fmt.Errorf("stats by %s: %w", col, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		put(k, n)
	}
	return rows.Err()
}

// buildSearch собирает where-часть и аргументы; пустые фильтры пропускаются.
func buildSearch(sq SearchQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q := strings.TrimSpace(sq.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		conds = append(conds, fmt.Sprintf("(title ilike %[1]s or description ilike %[1]s or methodology ilike %[1]s)", p))
	}
	if f := strings.TrimSpace(sq.Field); f != "" {
		conds = append(conds, "field = "+arg(f))
	}
	if sq.Level != "" {
		conds = append(conds, "level = "+arg(string(sq.Level)))
	}
	if sq.Status != "" {
		conds = append(conds, "status = "+arg(string(sq.Status)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " where " + strings.Join(conds, " and "), args
}

func pageBounds(sq SearchQuery) (limit, offset int) {
	limit = sq.Limit
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	return limit, max(sq.Offset, 0)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
