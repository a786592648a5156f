package model

import "context"

// CommandHandler はコマンド1つ分の実行ロジックを表すインターフェース。
// argsはコマンド名を除いた位置引数、waID/phoneは送信者のトランスポート識別子。
// 成功時は返信テキストを返し、想定内の失敗は*BotErrorとして返す。
type CommandHandler interface {
	Handle(ctx context.Context, args []string, waID, phone string) (string, error)
}

// CommandHandlerFunc は関数をCommandHandlerとして使うためのアダプタ。
type CommandHandlerFunc func(ctx context.Context, args []string, waID, phone string) (string, error)

// Handle はCommandHandlerを実装する。
func (f CommandHandlerFunc) Handle(ctx context.Context, args []string, waID, phone string) (string, error) {
	return f(ctx, args, waID, phone)
}

// Command はレジストリに登録される1コマンドの定義。
// 起動時に1回登録され、以後イミュータブルとして扱う。
type Command struct {
	// Name はワイヤレベルのコマンドトークン（例: "!events"）。小文字で登録する。
	Name    string
	Handler CommandHandler

	// MinArgs / MaxArgs は受け付ける位置引数の個数範囲。
	MinArgs int
	MaxArgs int

	// Help はヘルプ一覧と引数エラー時に表示される説明文。
	Help string

	// Public がtrueのコマンドは連携済みアカウントなしで実行できる。
	Public bool
}
