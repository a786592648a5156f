package bot

import (
	"context"
	"log/slog"
	"strings"
)

// renderHelp は呼び出し元の状態に応じたヘルプ一覧を組み立てる。
// 未連携の呼び出し元には公開コマンドのみと連携への案内を、
// 連携済みの呼び出し元には公開/制限の2グループに分けた全コマンドを表示する。
func (r *Router) renderHelp(ctx context.Context, waID string) string {
	linked := false
	if account, err := r.accounts.GetByWaID(ctx, waID); err != nil {
		// ヘルプは認可不要のため、解決失敗は未連携として扱いログにのみ残す
		slog.Warn("ヘルプ表示中のアカウント解決に失敗しました",
			slog.String("error", err.Error()),
		)
	} else if account != nil && account.IsLinked() {
		linked = true
	}

	var b strings.Builder
	b.WriteString("利用できるコマンド:\n\n")

	b.WriteString("公開コマンド:\n")
	for _, cmd := range r.registry.All() {
		if cmd.Public {
			b.WriteString(cmd.Name + " - " + cmd.Help + "\n")
		}
	}

	if !linked {
		b.WriteString("\nアカウントを連携すると予定の確認やリマインダー設定が利用できます。\n")
		b.WriteString("!register <メールアドレス> から始めてください。")
		return b.String()
	}

	b.WriteString("\n連携済みアカウント向けコマンド:\n")
	lines := make([]string, 0)
	for _, cmd := range r.registry.All() {
		if !cmd.Public {
			lines = append(lines, cmd.Name+" - "+cmd.Help)
		}
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
