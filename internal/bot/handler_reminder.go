package bot

import (
	"context"
	"fmt"

	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/validation"
)

// ReminderHandler は!reminderと!statusの実行ロジック。
type ReminderHandler struct {
	identity IdentityService
}

// NewReminderHandler はReminderHandlerを生成する。
func NewReminderHandler(identity IdentityService) *ReminderHandler {
	return &ReminderHandler{identity: identity}
}

// Set は!reminderを処理する。
// 分数は許可リスト（5, 10, 15）のいずれかでなければならない。
func (h *ReminderHandler) Set(ctx context.Context, args []string, waID, phone string) (string, error) {
	minutes, ok := validation.ParseReminderMinutes(args[0])
	if !ok {
		return "", model.NewInvalidReminderError(args[0], validation.ValidReminderMinutes)
	}

	account, err := h.resolve(ctx, waID)
	if err != nil {
		return "", err
	}

	if err := h.identity.UpdateReminder(ctx, account.Email, minutes); err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ リマインダーを設定しました。\n"+
		"各予定の開始%d分前に通知します。", minutes), nil
}

// Status は!statusを処理し、現在のリマインダー設定を表示する。
func (h *ReminderHandler) Status(ctx context.Context, args []string, waID, phone string) (string, error) {
	account, err := h.resolve(ctx, waID)
	if err != nil {
		return "", err
	}

	if account.ReminderMinutes == 0 {
		return "リマインダーは未設定です。!reminder 10 のように設定できます。", nil
	}
	return fmt.Sprintf("リマインダーは各予定の開始%d分前に設定されています。", account.ReminderMinutes), nil
}

// resolve は送信者のアカウントを取得する。
// 制限コマンドのためルーターで認可済みだが、連携が並行して解除される
// 可能性があるため再解決の失敗も認可エラーとして扱う。
func (h *ReminderHandler) resolve(ctx context.Context, waID string) (*model.Account, error) {
	account, err := h.identity.GetByWaID(ctx, waID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.NewUnauthorizedError()
	}
	return account, nil
}
