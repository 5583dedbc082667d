package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/sirupsen/logrus"

	"vkr-topics/api/internal/config"
	"vkr-topics/api/internal/generator"
	"vkr-topics/api/internal/httpserver"
	"vkr-topics/api/internal/llm/engines"
	"vkr-topics/api/internal/prompt"
	"vkr-topics/api/internal/store"
	"vkr-topics/api/internal/telegram"
	"vkr-topics/api/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	log := logger.WithField("component", "bot")

	if err := cfg.RequireTelegram(); err != nil {
		log.Fatal(err)
	}

	// --- Prompt + engines ---
	system, err := prompt.LoadSystemPrompt(cfg.PromptDir)
	if err != nil {
		log.Fatalf("system prompt: %v", err)
	}
	builder := prompt.NewBuilder(system)
	genLog := logger.WithField("component", "generator")
	newGenerator := func(selector string) (telegram.Generator, error) {
		eng, err := engines.New(selector, cfg.Keys())
		if err != nil {
			return nil, err
		}
		return generator.New(eng, builder, genLog, generator.WithTemperature(cfg.Temperature)), nil
	}
	// модель по умолчанию должна собираться на старте
	if _, err := newGenerator(cfg.DefaultModel); err != nil {
		log.Fatalf("default model %q: %v", cfg.DefaultModel, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &telegram.Router{
		Log:          logger.WithField("component", "telegram"),
		NewGenerator: newGenerator,
		DefaultModel: cfg.DefaultModel,
		ClampCount:   cfg.ClampCount,
		Timeout:      cfg.LLMTimeout + 30*time.Second,
	}

	// --- Postgres (опционально) ---
	var ping func(context.Context) error
	if dsn := resolveDSN(cfg.DatabaseURL); dsn != "" {
		db := openDB(ctx, dsn, log)
		defer db.Close()
		ping = db.PingContext
		r.Repo = store.NewTopicRepo(db)
		r.Ping = ping
	} else {
		log.Warn("database DSN is empty: topics will not be stored")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false
	r.Bot = bot
	log.WithFields(logrus.Fields{"bot": bot.Self.UserName, "model": cfg.DefaultModel}).Info("bot authorized")

	// --- HTTP mux (DefaultServeMux) ---
	// ListenForWebhook регистрирует обработчик на default mux, поэтому healthz там же.
	httpserver.Register(http.DefaultServeMux, ping)
	addr := "0.0.0.0:" + cfg.Port
	httpLog := logger.WithField("component", "http")

	handle := func(upd tgbotapi.Update) {
		// генерация долгая: не держим цикл получения апдейтов
		go r.HandleUpdate(upd)
	}

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, webhookURL, handle, httpLog, log)
	} else {
		startPollingMode(ctx, addr, bot, handle, httpLog, log)
	}
}

func openDB(ctx context.Context, dsn string, log *logrus.Entry) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}
	// connection pool tune
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}
	if err := store.NewTopicRepo(db).EnsureSchema(pingCtx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	log.Infof("db connected: %s", util.SafeDSNSummary(dsn))
	return db
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, baseURL string, handle func(tgbotapi.Update), httpLog, log *logrus.Entry) {
	// секретный путь вебхука
	path := "/webhook/" + util.ShortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			handle(upd)
		}
		log.Warn("webhook updates channel closed")
	}()

	log.WithField("path", path).Info("webhook mode")
	if err := httpserver.Start(addr, nil, httpLog); err != nil { // DefaultServeMux
		log.Fatal(err)
	}
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update), httpLog, log *logrus.Entry) {
	// для polling HTTP нужен только под healthz
	go func() {
		if err := httpserver.Start(addr, nil, httpLog); err != nil {
			log.Fatal(err)
		}
	}()

	// вебхук и getUpdates несовместимы
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.WithError(err).Warn("delete webhook failed")
	}
	log.Info("polling mode")
	runPolling(ctx, bot, handle, log)
}

// ---------------- Helpers -----------------

func resolveDSN(databaseURL string) string {
	if v := strings.TrimSpace(databaseURL); v != "" {
		return v
	}
	// Build DSN from POSTGRES_* / PG* env vars; без них работаем без БД
	if os.Getenv("POSTGRES_DB") == "" && os.Getenv("PGHOST") == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "vkr")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "vkr_topics")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
