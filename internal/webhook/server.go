// Package webhook はWhatsApp受信メッセージのHTTPサーバーを提供する。
// Twilioが転送するフォームPOSTを受け取り、ボットルーターで処理した
// 返信を送信者へ返す。
package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/calman/internal/bot"
	"github.com/hitoshi/calman/internal/metrics"
	"github.com/hitoshi/calman/internal/middleware"
	"github.com/hitoshi/calman/internal/notifier"
)

// rateLimitedReply はレート制限時に返す利用者向けの文言。
// Twilioの再送を避けるためHTTPとしては200で返す。
const rateLimitedReply = "コマンドの送信が多すぎます。しばらく待ってから再度お試しください。"

// Server はWebhookサーバーのハンドラ群を保持する。
type Server struct {
	router  *bot.Router
	sender  notifier.Sender
	limiter *middleware.SenderLimiter
	logger  *slog.Logger
}

// NewServer はServerを生成する。
func NewServer(router *bot.Router, sender notifier.Sender, limiter *middleware.SenderLimiter, logger *slog.Logger) *Server {
	return &Server{
		router:  router,
		sender:  sender,
		limiter: limiter,
		logger:  logger,
	}
}

// Handler はルーティング設定済みのHTTPハンドラを返す。
// gathererが指定された場合は/metricsエンドポイントを公開する。
func (s *Server) Handler(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(s.logger))

	r.Post("/webhook", s.handleWebhook)
	r.Get("/health", s.handleHealth)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	return r
}

// handleWebhook はTwilioのWhatsAppメッセージWebhookを処理する。
// フォームのBody/WaId/Fromを取り出してルーターに渡し、返信テキストを
// レスポンスボディで返す。併せてTwilio API経由でも能動的に送信する
// （リマインダーと同じ経路を使うことで、Webhookの応答形式に依存しない）。
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	body := r.PostFormValue("Body")
	waID := r.PostFormValue("WaId")
	phone := r.PostFormValue("From")

	if waID == "" {
		http.Error(w, "missing WaId", http.StatusBadRequest)
		return
	}

	reply := rateLimitedReply
	if s.limiter == nil || s.limiter.Allow(waID) {
		reply = s.router.Route(r.Context(), body, waID, phone)
	} else {
		s.logger.Warn("レート制限によりコマンドを拒否しました",
			slog.String("wa_id", waID),
		)
	}

	// 返信の能動送信は失敗してもWebhook自体は成功として扱う
	// （Twilioはレスポンスボディでも返信できるため）
	if phone != "" {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
		defer cancel()
		if err := s.sender.Send(sendCtx, phone, reply); err != nil {
			s.logger.Error("返信の送信に失敗しました",
				slog.String("wa_id", waID),
				slog.String("error", err.Error()),
			)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(reply))
}

// handleHealth は死活監視エンドポイント。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
