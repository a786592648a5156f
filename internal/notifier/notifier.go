// Package notifier はWhatsAppメッセージの送信機能を提供する。
// Twilio Messages APIの呼び出しと、資格情報未設定時のログ出力フォールバックを含む。
package notifier

import (
	"context"
	"log/slog"
)

// Sender はWhatsAppメッセージ送信のインターフェース。
// Webhookの能動的な返信とリマインダーワーカーの通知の両方で使用される。
type Sender interface {
	// Send はWhatsApp番号宛にテキストメッセージを送信する。
	Send(ctx context.Context, to, body string) error
}

// NopSender は送信せずログに記録するSender。
// Twilioの資格情報が未設定の開発環境で使用する。
type NopSender struct {
	logger *slog.Logger
}

// NewNopSender はNopSenderを生成する。
func NewNopSender(logger *slog.Logger) *NopSender {
	return &NopSender{logger: logger}
}

// Send はメッセージをログに記録するだけで何も送信しない。
func (s *NopSender) Send(ctx context.Context, to, body string) error {
	s.logger.Info("WhatsApp送信をスキップしました（資格情報未設定）",
		slog.String("to", to),
		slog.Int("body_length", len(body)),
	)
	return nil
}

var _ Sender = (*NopSender)(nil)
