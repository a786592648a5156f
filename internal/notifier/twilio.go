package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// defaultAPIBase はTwilio REST APIのベースURL。
	defaultAPIBase = "https://api.twilio.com"
	// whatsappPrefix はTwilioのWhatsAppアドレス形式の接頭辞。
	whatsappPrefix = "whatsapp:"
)

// TwilioSender はTwilio Messages API経由でWhatsAppメッセージを送信する。
type TwilioSender struct {
	httpClient *http.Client
	logger     *slog.Logger
	accountSID string
	authToken  string
	from       string
	apiBase    string // テスト用にエンドポイントを差し替え可能
}

// NewTwilioSender はTwilioSenderを生成する。
// fromはWhatsApp送信元番号（例: +14155238886）。
func NewTwilioSender(httpClient *http.Client, logger *slog.Logger, accountSID, authToken, from string) *TwilioSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TwilioSender{
		httpClient: httpClient,
		logger:     logger,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		apiBase:    defaultAPIBase,
	}
}

// Send はWhatsApp番号宛にテキストメッセージを送信する。
// toはE.164形式の電話番号。whatsapp:接頭辞はここで付与する。
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.apiBase, s.accountSID)

	form := url.Values{}
	form.Set("From", whatsappAddr(s.from))
	form.Set("To", whatsappAddr(to))
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Twilio APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("to", to),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("Twilio APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("to", to),
			slog.String("response", string(respBody)),
		)
		return fmt.Errorf("Twilio APIがステータス %d を返しました", resp.StatusCode)
	}

	s.logger.Info("WhatsAppメッセージを送信しました",
		slog.String("to", to),
		slog.Int("body_length", len(body)),
	)
	return nil
}

// whatsappAddr は電話番号をTwilioのWhatsAppアドレス形式に変換する。
// 既に接頭辞が付いている場合はそのまま返す。
func whatsappAddr(number string) string {
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}

var _ Sender = (*TwilioSender)(nil)
