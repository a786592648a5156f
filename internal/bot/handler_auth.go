package bot

import (
	"context"
	"fmt"

	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/validation"
)

// IdentityService は認証・リマインダー系ハンドラが必要とする
// アイデンティティストアのインターフェース。
type IdentityService interface {
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByWaID(ctx context.Context, waID string) (*model.Account, error)
	IssueVerificationCode(ctx context.Context, email string) (string, error)
	VerifyAndLink(ctx context.Context, email, code, waID, phone string) (model.Account, error)
	UpdateReminder(ctx context.Context, email string, minutes int) error
}

// CodeSender は認証コードの帯域外送付インターフェース。
// 実装はinternal/mailerが提供する。
type CodeSender interface {
	SendCode(ctx context.Context, recipient, code string) error
}

// AuthHandler は!registerと!validateの実行ロジック。
type AuthHandler struct {
	identity IdentityService
	mailer   CodeSender
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(identity IdentityService, mailer CodeSender) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		mailer:   mailer,
	}
}

// Register は!registerを処理する。
// メールアドレスを検証し、名簿上のアカウントに認証コードを発行して
// メールで送付する。
func (h *AuthHandler) Register(ctx context.Context, args []string, waID, phone string) (string, error) {
	email := args[0]

	if !validation.IsValidEmail(email) {
		return "", model.NewInvalidEmailError(email)
	}

	// 名簿に存在しないメールアドレスにはコードを発行しない
	if _, err := h.identity.GetByEmail(ctx, email); err != nil {
		return "", err
	}

	code, err := h.identity.IssueVerificationCode(ctx, email)
	if err != nil {
		return "", err
	}

	if err := h.mailer.SendCode(ctx, email, code); err != nil {
		return "", fmt.Errorf("認証コードの送信に失敗しました: %w", err)
	}

	return fmt.Sprintf("📧 認証コードを %s 宛に送信しました。\n"+
		"受信したら !validate %s <コード> を送信して連携を完了してください。", email, email), nil
}

// Validate は!validateを処理する。
// 保留コードが一致すればアカウントに送信者の電話番号とWhatsApp IDを
// 紐付けて連携を完了する。
func (h *AuthHandler) Validate(ctx context.Context, args []string, waID, phone string) (string, error) {
	email, code := args[0], args[1]

	account, err := h.identity.VerifyAndLink(ctx, email, code, waID, phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ 連携が完了しました。ようこそ、%sさん！\n"+
		"!help でコマンド一覧を確認できます。", account.FullName()), nil
}
