// Package mailer は認証コードのメール送付機能を提供する。
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPMailer はSMTP経由で認証コードメールを送信する。
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger

	// sendMail はテスト用に差し替え可能なSMTP送信関数。
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(host string, port int, username, password, from string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// SendCode は認証コードを記載したメールを送信する。
func (m *SMTPMailer) SendCode(ctx context.Context, recipient, code string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	msg := buildCodeMessage(m.from, recipient, code)

	if err := m.sendMail(addr, auth, m.from, []string{recipient}, msg); err != nil {
		m.logger.Error("認証コードメールの送信に失敗しました",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("メール送信に失敗しました: %w", err)
	}

	m.logger.Info("認証コードメールを送信しました",
		slog.String("recipient", recipient),
	)
	return nil
}

// buildCodeMessage はRFC 5322形式のメール本文を組み立てる。
// 件名は日本語を避けてASCIIのみにする（エンコーディング処理を持たないため）。
func buildCodeMessage(from, to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "認証コード: %s\r\n", code)
	b.WriteString("\r\n")
	b.WriteString("WhatsAppで !validate <メールアドレス> <コード> を送信して連携を完了してください。\r\n")
	return []byte(b.String())
}

// LogMailer は送信せずログに記録するフォールバック実装。
// SMTPの設定がない開発環境で使用する。コード自体はログに残さない。
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer はLogMailerを生成する。
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendCode はメール送信をスキップしてログに記録する。
func (m *LogMailer) SendCode(ctx context.Context, recipient, code string) error {
	m.logger.Info("認証コードメールをスキップしました（SMTP未設定）",
		slog.String("recipient", recipient),
	)
	return nil
}
