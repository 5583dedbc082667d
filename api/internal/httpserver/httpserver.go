package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthHandler отвечает "ok", если ping (обычно db.PingContext) прошёл; nil ping — всегда ok.
func HealthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Register вешает /healthz и корневую заглушку на mux.
// Бот использует DefaultServeMux: туда же tgbotapi.ListenForWebhook регистрирует вебхук.
func Register(mux *http.ServeMux, ping func(context.Context) error) {
	mux.HandleFunc("/healthz", HealthHandler(ping))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("vkr topics telegram bot"))
	})
}

// Start слушает addr с handler (nil — DefaultServeMux) до ошибки.
func Start(addr string, handler http.Handler, log *logrus.Entry) error {
	if log == nil {
		log = logrus.WithField("component", "http")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.WithField("addr", addr).Info("http server listening")
	return srv.ListenAndServe()
}
