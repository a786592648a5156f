// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/calman/internal/bot"
	"github.com/hitoshi/calman/internal/config"
	"github.com/hitoshi/calman/internal/database"
	"github.com/hitoshi/calman/internal/event"
	"github.com/hitoshi/calman/internal/importer"
	"github.com/hitoshi/calman/internal/logger"
	"github.com/hitoshi/calman/internal/mailer"
	"github.com/hitoshi/calman/internal/metrics"
	"github.com/hitoshi/calman/internal/middleware"
	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/notifier"
	"github.com/hitoshi/calman/internal/repository"
	"github.com/hitoshi/calman/internal/security"
	"github.com/hitoshi/calman/internal/user"
	"github.com/hitoshi/calman/internal/webhook"
	reminderpkg "github.com/hitoshi/calman/internal/worker/reminder"
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、JSON構造化ログをセットアップして
// 環境変数からConfigを読み込む。
func Init(w io.Writer) (*config.Config, error) {
	// .envは任意（本番では環境変数を直接設定する）
	_ = godotenv.Load()

	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store_backend", cfg.StoreBackend),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg, args[1:])
	case CommandImportCalendly:
		return runImportCalendly(cfg)
	case CommandImportMasterschool:
		return runImportMasterschool(cfg)
	default:
		return runServe(cfg)
	}
}

// buildStores は設定されたバックエンドで予定・アイデンティティストアを構築する。
// 返すクローズ関数は呼び出し元がdeferで実行する。
func buildStores(cfg *config.Config) (*event.Service, *user.Service, func(), error) {
	if cfg.StoreBackend == config.BackendPostgres {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")

		eventSvc := event.NewService(repository.NewPostgresEventRepo(db))
		userSvc := user.NewService(repository.NewPostgresAccountRepo(db))
		return eventSvc, userSvc, func() { db.Close() }, nil
	}

	eventSvc := event.NewService(repository.NewFileEventRepo(cfg.EventsFile))
	userSvc := user.NewService(repository.NewFileAccountRepo(cfg.UsersFile))
	return eventSvc, userSvc, func() {}, nil
}

// newSender はTwilioの資格情報に応じてWhatsApp送信実装を選択する。
func newSender(cfg *config.Config) notifier.Sender {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		slog.Warn("Twilioの資格情報が未設定のため、WhatsApp送信はログ出力のみになります")
		return notifier.NewNopSender(slog.Default())
	}
	return notifier.NewTwilioSender(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
		cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber,
	)
}

// newMailer はSMTPの設定に応じて認証コード送付実装を選択する。
func newMailer(cfg *config.Config) bot.CodeSender {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTPが未設定のため、認証コードメールはログ出力のみになります")
		return mailer.NewLogMailer(slog.Default())
	}
	return mailer.NewSMTPMailer(
		cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom,
		slog.Default(),
	)
}

// runServe はWebhookサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	eventSvc, userSvc, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	router := bot.NewBotRouter(userSvc, eventSvc, newMailer(cfg), collector)

	limiter := middleware.NewSenderLimiter(
		middleware.DefaultSenderLimiterConfig(cfg.RateLimitPerSender),
	)
	defer limiter.Stop()

	srv := webhook.NewServer(router, newSender(cfg), limiter, slog.Default())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Handler(registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("webhook server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down webhook server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("webhook server stopped gracefully")
	return nil
}

// runWorker はリマインダーワーカーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	eventSvc, userSvc, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	dispatcher := reminderpkg.NewDispatcher(
		eventSvc, userSvc, newSender(cfg),
		slog.Default(), nil, cfg.ReminderCheckInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("check_interval", cfg.ReminderCheckInterval),
	)

	// ディスパッチャをメインgoroutineで実行（ブロッキング）
	dispatcher.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("migrate requires STORE_BACKEND=postgres")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はシードファイルの予定を予定ストアに投入する。
// ファイルは予定レコードのJSON配列。衝突する予定はスキップして続行する。
func runSeed(cfg *config.Config, args []string) error {
	path := "data/seed_events.json"
	if len(args) > 0 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var records []model.EventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	eventSvc, _, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	ctx := context.Background()
	added, skipped := 0, 0
	for _, rec := range records {
		e, err := model.EventFromRecord(rec)
		if err != nil {
			return fmt.Errorf("invalid seed record: %w", err)
		}
		if _, err := eventSvc.Add(ctx, e); err != nil {
			if be, ok := model.AsBotError(err); ok && be.Kind == model.KindConflict {
				skipped++
				slog.Warn("衝突のためシード予定をスキップしました",
					slog.String("name", e.Name),
				)
				continue
			}
			return err
		}
		added++
	}

	slog.Info("seed completed",
		slog.String("path", path),
		slog.Int("added", added),
		slog.Int("skipped", skipped),
	)
	return nil
}

// runImportCalendly はCalendlyから今後30日分の予定を取り込む。
func runImportCalendly(cfg *config.Config) error {
	if cfg.CalendlyAPIToken == "" {
		return fmt.Errorf("CALENDLY_API_TOKEN is not set")
	}
	if err := security.ValidateURL(cfg.CalendlyAPIBase); err != nil {
		return fmt.Errorf("invalid CALENDLY_API_BASE: %w", err)
	}

	eventSvc, _, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	imp := importer.NewCalendlyImporter(
		security.NewSafeClient(cfg.FetchTimeout),
		slog.Default(),
		security.NewTextSanitizer(),
		eventSvc, nil,
		cfg.CalendlyAPIToken, cfg.CalendlyAPIBase,
	)

	now := time.Now()
	res, err := imp.Sync(context.Background(), now, now.AddDate(0, 0, 30))
	if err != nil {
		return fmt.Errorf("calendly import failed: %w", err)
	}

	slog.Info("calendly import completed",
		slog.Int("added", res.Added),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
	return nil
}

// runImportMasterschool はMasterschoolから今後120日分の予定を取り込む。
func runImportMasterschool(cfg *config.Config) error {
	if cfg.MasterschoolAPIURL == "" || cfg.MasterschoolAPIKey == "" {
		return fmt.Errorf("MASTERSCHOOL_API_URL and MASTERSCHOOL_API_KEY must be set")
	}
	if err := security.ValidateURL(cfg.MasterschoolAPIURL); err != nil {
		return fmt.Errorf("invalid MASTERSCHOOL_API_URL: %w", err)
	}

	eventSvc, _, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	imp := importer.NewMasterschoolImporter(
		security.NewSafeClient(cfg.FetchTimeout),
		slog.Default(),
		security.NewTextSanitizer(),
		eventSvc, nil,
		cfg.MasterschoolAPIURL, cfg.MasterschoolAPIKey, cfg.MasterschoolCalendarIDs,
	)

	now := time.Now()
	res, err := imp.Sync(context.Background(), now, now.AddDate(0, 0, 120))
	if err != nil {
		return fmt.Errorf("masterschool import failed: %w", err)
	}

	slog.Info("masterschool import completed",
		slog.Int("added", res.Added),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
