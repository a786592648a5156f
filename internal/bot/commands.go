package bot

import (
	"context"

	"github.com/hitoshi/calman/internal/model"
)

// NewBotRouter は全コマンドを登録済みのルーターを構築する。
// レジストリは起動時にここで1回だけ組み立てる。
func NewBotRouter(identity IdentityService, events EventLister, mailer CodeSender, metrics MetricsRecorder) *Router {
	r := NewRouter(identity, metrics)

	authHandler := NewAuthHandler(identity, mailer)
	eventsHandler := NewEventsHandler(events)
	reminderHandler := NewReminderHandler(identity)

	r.Register(model.Command{
		Name: "!help",
		Handler: model.CommandHandlerFunc(func(ctx context.Context, args []string, waID, phone string) (string, error) {
			return r.renderHelp(ctx, waID), nil
		}),
		MinArgs: 0,
		MaxArgs: 0,
		Help:    "コマンド一覧を表示します。使い方: !help",
		Public:  true,
	})

	r.Register(model.Command{
		Name:    "!register",
		Handler: model.CommandHandlerFunc(authHandler.Register),
		MinArgs: 1,
		MaxArgs: 1,
		Help:    "メールアドレス宛に認証コードを送信します。使い方: !register <メールアドレス>",
		Public:  true,
	})

	r.Register(model.Command{
		Name:    "!validate",
		Handler: model.CommandHandlerFunc(authHandler.Validate),
		MinArgs: 2,
		MaxArgs: 2,
		Help:    "認証コードを検証してアカウントを連携します。使い方: !validate <メールアドレス> <コード>",
		Public:  true,
	})

	r.Register(model.Command{
		Name:    "!events",
		Handler: model.CommandHandlerFunc(eventsHandler.List),
		MinArgs: 0,
		MaxArgs: 1,
		Help:    "指定期間の予定を一覧します。使い方: !events [today|tomorrow|this-week|next-week|this-month|next-month|all]",
	})

	r.Register(model.Command{
		Name:    "!reminder",
		Handler: model.CommandHandlerFunc(reminderHandler.Set),
		MinArgs: 1,
		MaxArgs: 1,
		Help:    "予定開始前の通知タイミングを設定します。使い方: !reminder <5|10|15>",
	})

	r.Register(model.Command{
		Name:    "!status",
		Handler: model.CommandHandlerFunc(reminderHandler.Status),
		MinArgs: 0,
		MaxArgs: 0,
		Help:    "現在のリマインダー設定を表示します。使い方: !status",
	})

	return r
}
