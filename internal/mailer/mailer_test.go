package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestSMTPMailer_SendCode(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer("smtp.example.com", 587, "bot@example.com", "secret", "bot@example.com", testLogger())
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := m.SendCode(context.Background(), "taro@example.com", "424242"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "bot@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "taro@example.com" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"To: taro@example.com",
		"Subject: Your verification code",
		"424242",
		"!validate",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message should contain %q:\n%s", want, msg)
		}
	}
}

func TestSMTPMailer_SendCode_WrapsError(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "bot@example.com", "secret", "bot@example.com", testLogger())
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendCode(context.Background(), "taro@example.com", "424242")
	if err == nil {
		t.Fatal("expected an error when SMTP fails")
	}
	if !strings.Contains(err.Error(), "メール送信に失敗しました") {
		t.Errorf("error should be wrapped, got %v", err)
	}
}

func TestLogMailer_DoesNotLogCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := NewLogMailer(logger)

	if err := m.SendCode(context.Background(), "taro@example.com", "424242"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "424242") {
		t.Error("the verification code must not appear in logs")
	}
	if !strings.Contains(out, "taro@example.com") {
		t.Error("the log should record the recipient")
	}
}
