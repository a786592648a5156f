// Package bot はコマンドレジストリとコマンドルーターを提供する。
// 受信メッセージを(コマンド, 引数)にパースし、引数個数検証・認可・
// ハンドラ呼び出し・エラー→テキスト変換を一箇所で行う。
package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hitoshi/calman/internal/model"
)

// AccountResolver はルーターの認可判定に必要なアカウント解決インターフェース。
type AccountResolver interface {
	// GetByWaID はWhatsApp IDで連携済みアカウントを検索する。該当なしはnil。
	GetByWaID(ctx context.Context, waID string) (*model.Account, error)
}

// MetricsRecorder はコマンド処理のメトリクス収集インターフェース。
type MetricsRecorder interface {
	RecordCommand(name string)
	RecordCommandError(kind string)
	RecordRouteDuration(d time.Duration)
}

// Router はコマンドルーター。
// 引数検証と認可をここに集約することで、ハンドラをボイラープレートから
// 解放し、どのハンドラが失敗しても利用者向けの文言を統一する。
type Router struct {
	registry *Registry
	accounts AccountResolver
	metrics  MetricsRecorder // nilの場合は記録しない
}

// NewRouter はRouterを生成する。
func NewRouter(accounts AccountResolver, metrics MetricsRecorder) *Router {
	return &Router{
		registry: NewRegistry(),
		accounts: accounts,
		metrics:  metrics,
	}
}

// Register はコマンドをレジストリに登録する。
func (r *Router) Register(cmd model.Command) {
	r.registry.Register(cmd)
}

// parseMessage は受信メッセージを(コマンド名, 位置引数)に分解する。
// 先頭トークンを小文字化したものがコマンド名。空入力は空のコマンド名を返す。
func parseMessage(message string) (string, []string) {
	parts := strings.Fields(strings.TrimSpace(message))
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

// Route は受信メッセージを処理して返信テキストを返す。
// この境界の外へはいかなる失敗も伝播しない。想定内の失敗は
// BotErrorの文言、想定外の失敗はログ＋汎用メッセージに変換される。
func (r *Router) Route(ctx context.Context, message, waID, phone string) string {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordRouteDuration(time.Since(start))
		}
	}()

	name, args := parseMessage(message)

	slog.Info("コマンドをルーティングします",
		slog.String("command", name),
		slog.Int("arg_count", len(args)),
		slog.String("wa_id", waID),
	)

	// コマンドなし・未知のコマンドはエラーではなくヘルプ一覧を返す
	cmd, ok := r.registry.Get(name)
	if name == "" || !ok {
		if r.metrics != nil {
			r.metrics.RecordCommand("unknown")
		}
		return r.renderHelp(ctx, waID)
	}

	if r.metrics != nil {
		r.metrics.RecordCommand(cmd.Name)
	}

	// 引数個数の検証。範囲外ならハンドラは呼び出さない。
	if len(args) < cmd.MinArgs {
		return r.renderError(model.NewTooFewArgsError(cmd.Name, cmd.Help))
	}
	if len(args) > cmd.MaxArgs {
		return r.renderError(model.NewTooManyArgsError(cmd.Name, cmd.Help))
	}

	// 認可。公開コマンドはアカウントが解決できなくても実行できる。
	if !cmd.Public {
		account, err := r.accounts.GetByWaID(ctx, waID)
		if err != nil {
			return r.renderError(err)
		}
		if account == nil || !account.IsLinked() {
			return r.renderError(model.NewUnauthorizedError())
		}
	}

	reply, err := r.invoke(ctx, cmd, args, waID, phone)
	if err != nil {
		return r.renderError(err)
	}
	return reply
}

// invoke はハンドラを呼び出す。ハンドラ内のpanicはここで回収し、
// プロセスをクラッシュさせずに想定外エラーとして扱う。
func (r *Router) invoke(ctx context.Context, cmd *model.Command, args []string, waID, phone string) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic recovered in command handler",
				slog.String("command", cmd.Name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			reply = ""
			err = model.NewInternalError()
		}
	}()

	return cmd.Handler.Handle(ctx, args, waID, phone)
}

// renderError は失敗を利用者向けの返信テキストに変換する。
// 想定外の失敗は運用ログに記録した上で汎用メッセージに落とす。
func (r *Router) renderError(err error) string {
	if be, ok := model.AsBotError(err); ok {
		if r.metrics != nil {
			r.metrics.RecordCommandError(string(be.Kind))
		}
		return be.Reply()
	}

	slog.Error("コマンドの実行に失敗しました", slog.String("error", err.Error()))
	if r.metrics != nil {
		r.metrics.RecordCommandError(string(model.KindInternal))
	}
	return model.NewInternalError().Reply()
}
