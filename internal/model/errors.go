package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind は想定内の失敗を分類する閉じた集合。
// ルーターのエラー→テキスト変換はこの集合に対する全域関数になる。
type ErrorKind string

const (
	KindUnknownCommand ErrorKind = "unknown_command"
	KindArityTooFew    ErrorKind = "arity_too_few"
	KindArityTooMany   ErrorKind = "arity_too_many"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindConflict       ErrorKind = "conflict"
	KindNotFound       ErrorKind = "not_found"
	KindNoEvents       ErrorKind = "no_events"
	KindValidation     ErrorKind = "validation"
	KindInternal       ErrorKind = "internal"
)

// BotError は利用者への返信テキストとして描画される想定内エラーを表す。
// Messageは何が起きたか、Actionは利用者が次に取るべき操作を示す。
type BotError struct {
	Kind    ErrorKind
	Message string
	Action  string
}

// Error はerrorインターフェースを実装する。
func (e *BotError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Reply は利用者に送る返信テキストを組み立てる。
func (e *BotError) Reply() string {
	if e.Action == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Action
}

// AsBotError はエラーチェーンから*BotErrorを取り出す。
func AsBotError(err error) (*BotError, bool) {
	var be *BotError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// NewTooFewArgsError は引数不足エラーを生成する。
func NewTooFewArgsError(command, help string) *BotError {
	return &BotError{
		Kind:    KindArityTooFew,
		Message: fmt.Sprintf("⚠️ %s に必要な情報が足りません。", command),
		Action:  help,
	}
}

// NewTooManyArgsError は引数過多エラーを生成する。
func NewTooManyArgsError(command, help string) *BotError {
	return &BotError{
		Kind:    KindArityTooMany,
		Message: fmt.Sprintf("⚠️ %s に余分な情報が含まれています。", command),
		Action:  help,
	}
}

// NewUnauthorizedError は未連携アカウントによる制限コマンド実行エラーを生成する。
func NewUnauthorizedError() *BotError {
	return &BotError{
		Kind:    KindUnauthorized,
		Message: "このコマンドの利用にはアカウント連携が必要です。",
		Action:  "!register <メールアドレス> で認証コードを受け取り、!validate <メールアドレス> <コード> で連携を完了してください。",
	}
}

// NewEventConflictError は既存予定との時間帯衝突エラーを生成する。
// 衝突相手の名前・日付・時間帯を含める。
func NewEventConflictError(existing *Event) *BotError {
	return &BotError{
		Kind: KindConflict,
		Message: fmt.Sprintf("既存の予定と時間帯が重なっています: %s（%s %s-%s）",
			existing.Name, existing.StartDate, existing.StartTime, existing.EndTime),
		Action: "別の時間帯を指定してください。",
	}
}

// NewEventNotFoundError は予定未検出エラーを生成する。
func NewEventNotFoundError(id string) *BotError {
	return &BotError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("指定された予定が見つかりません: %s", id),
		Action:  "予定IDを確認してください。",
	}
}

// NewEmailNotFoundError はロスター未登録メールアドレスのエラーを生成する。
func NewEmailNotFoundError(email string) *BotError {
	return &BotError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("メールアドレス %s は承認済み名簿に登録されていません。", email),
		Action:  "登録済みのメールアドレスを使用するか、管理者に問い合わせてください。",
	}
}

// NewNoEventsError は予定が1件もない空状態を生成する。
// クラッシュではなく利用者向けの空状態メッセージとして扱う。
func NewNoEventsError() *BotError {
	return &BotError{
		Kind:    KindNoEvents,
		Message: "予定はまだ登録されていません。",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError(email string) *BotError {
	return &BotError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("❌ メールアドレスの形式が正しくありません: %s", email),
		Action:  "例: !register taro@example.com",
	}
}

// NewInvalidReminderError はリマインダー分数の許可リスト外エラーを生成する。
func NewInvalidReminderError(value string, allowed []int) *BotError {
	opts := make([]string, len(allowed))
	for i, m := range allowed {
		opts[i] = fmt.Sprintf("%d", m)
	}
	return &BotError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("❌ リマインダー時間に %s は指定できません。", value),
		Action:  fmt.Sprintf("%s 分のいずれかを指定してください。例: !reminder 10", strings.Join(opts, "、")),
	}
}

// NewInvalidCodeError は認証コード不一致エラーを生成する。
func NewInvalidCodeError() *BotError {
	return &BotError{
		Kind:    KindValidation,
		Message: "❌ 認証コードが一致しません。",
		Action:  "!register <メールアドレス> でコードを再発行できます。",
	}
}

// NewInvalidTimeframeError は未対応のタイムフレームトークンのエラーを生成する。
func NewInvalidTimeframeError(token string, valid []string) *BotError {
	return &BotError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("❌ 期間の指定が正しくありません: %s", token),
		Action:  fmt.Sprintf("指定できる期間: %s。例: !events this-week", strings.Join(valid, ", ")),
	}
}

// NewInternalError は想定外の失敗を利用者向けの汎用メッセージに変換する。
// 詳細はログにのみ記録し、返信には含めない。
func NewInternalError() *BotError {
	return &BotError{
		Kind:    KindInternal,
		Message: "コマンドの実行に失敗しました。",
		Action:  "しばらく待ってから再度お試しください。",
	}
}
