package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/calman/internal/model"
)

const masterschoolSource = "masterschool"

// MasterschoolImporter はMasterschoolのカレンダーハブAPIから予定を取り込む。
type MasterschoolImporter struct {
	httpClient  *http.Client
	logger      *slog.Logger
	sanitizer   Sanitizer
	store       EventStore
	metrics     ImportRecorder
	apiURL      string
	apiKey      string
	calendarIDs []string
}

// NewMasterschoolImporter はMasterschoolImporterを生成する。
func NewMasterschoolImporter(httpClient *http.Client, logger *slog.Logger, sanitizer Sanitizer, store EventStore, metrics ImportRecorder, apiURL, apiKey string, calendarIDs []string) *MasterschoolImporter {
	return &MasterschoolImporter{
		httpClient:  httpClient,
		logger:      logger,
		sanitizer:   sanitizer,
		store:       store,
		metrics:     metrics,
		apiURL:      apiURL,
		apiKey:      apiKey,
		calendarIDs: calendarIDs,
	}
}

// msEvent はカレンダーハブAPIレスポンスの1件分。
type msEvent struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	HasVc          bool      `json:"hasVc"`
	VcURL          string    `json:"vcUrl"`
	RecordingLinks []string  `json:"recordingLinks"`
}

// msRequest はカレンダーハブAPIへのリクエストボディ。
type msRequest struct {
	CalendarIDs []string `json:"calendarIds"`
	From        string   `json:"from"`
	To          string   `json:"to"`
}

// Sync は[from, to]の範囲のMasterschool予定を取り込む。
func (m *MasterschoolImporter) Sync(ctx context.Context, from, to time.Time) (Result, error) {
	raw, err := m.fetchEvents(ctx, from, to)
	if err != nil {
		return Result{}, err
	}

	return store(ctx, m.store, m.logger, m.metrics, masterschoolSource, m.convert(raw))
}

// convert はMasterschoolの予定をローカルの予定モデルに変換する。
// ビデオ会議URLと録画リンクは説明文に追記する。
func (m *MasterschoolImporter) convert(raw []msEvent) []model.Event {
	out := make([]model.Event, 0, len(raw))
	for _, me := range raw {
		description := m.sanitizer.Sanitize(me.Description)
		if description == "" {
			description = noDescription
		}

		var extra strings.Builder
		if me.HasVc && me.VcURL != "" {
			fmt.Fprintf(&extra, "\n\n会議URL: %s", me.VcURL)
		}
		if len(me.RecordingLinks) > 0 {
			extra.WriteString("\n\n録画:")
			for _, link := range me.RecordingLinks {
				extra.WriteString("\n")
				extra.WriteString(link)
			}
		}

		out = append(out, localEvent(
			m.sanitizer.Sanitize(me.Title),
			description+extra.String(),
			masterschoolSource,
			me.ID,
			me.Start,
			me.End,
		))
	}
	return out
}

// fetchEvents はカレンダーハブAPIから予定を取得する。
func (m *MasterschoolImporter) fetchEvents(ctx context.Context, from, to time.Time) ([]msEvent, error) {
	payload := msRequest{
		CalendarIDs: m.calendarIDs,
		From:        from.UTC().Format(time.RFC3339),
		To:          to.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Error("Masterschool APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Masterschool APIがステータス %d を返しました", resp.StatusCode)
	}

	var events []msEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("Masterschoolレスポンスのパースに失敗しました: %w", err)
	}
	return events, nil
}
