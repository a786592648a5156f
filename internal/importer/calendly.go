package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/calman/internal/model"
)

const calendlySource = "calendly"

// CalendlyImporter はCalendly APIから予定を取り込む。
type CalendlyImporter struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  Sanitizer
	store      EventStore
	metrics    ImportRecorder
	token      string
	apiBase    string // テスト用にエンドポイントを差し替え可能
}

// NewCalendlyImporter はCalendlyImporterを生成する。
// apiBaseが空の場合は本番APIを使用する。
func NewCalendlyImporter(httpClient *http.Client, logger *slog.Logger, sanitizer Sanitizer, store EventStore, metrics ImportRecorder, token, apiBase string) *CalendlyImporter {
	if apiBase == "" {
		apiBase = "https://api.calendly.com"
	}
	return &CalendlyImporter{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		store:      store,
		metrics:    metrics,
		token:      token,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
	}
}

// calendlyUser は/users/meレスポンスの必要部分。
type calendlyUser struct {
	Resource struct {
		URI string `json:"uri"`
	} `json:"resource"`
}

// calendlyEvent は/scheduled_eventsレスポンスの1件分。
type calendlyEvent struct {
	URI         string    `json:"uri"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type calendlyCollection struct {
	Collection []calendlyEvent `json:"collection"`
}

// Sync は[from, to]の範囲のCalendly予定を取り込む。
// ユーザーURIの解決、予定の取得、変換、ストアへの追加までを行う。
func (c *CalendlyImporter) Sync(ctx context.Context, from, to time.Time) (Result, error) {
	userURI, err := c.fetchUserURI(ctx)
	if err != nil {
		return Result{}, err
	}

	raw, err := c.fetchEvents(ctx, userURI, from, to)
	if err != nil {
		return Result{}, err
	}

	return store(ctx, c.store, c.logger, c.metrics, calendlySource, c.convert(raw))
}

// convert はCalendlyの予定をローカルの予定モデルに変換する。
func (c *CalendlyImporter) convert(raw []calendlyEvent) []model.Event {
	out := make([]model.Event, 0, len(raw))
	for _, ce := range raw {
		description := c.sanitizer.Sanitize(ce.Description)
		if description == "" {
			description = noDescription
		}
		// source_idはURIの末尾セグメント
		parts := strings.Split(ce.URI, "/")
		sourceID := parts[len(parts)-1]

		out = append(out, localEvent(
			c.sanitizer.Sanitize(ce.Name),
			description,
			calendlySource,
			sourceID,
			ce.StartTime,
			ce.EndTime,
		))
	}
	return out
}

// fetchUserURI はAPIトークンに対応するユーザーURIを解決する。
func (c *CalendlyImporter) fetchUserURI(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/me", nil)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Calendly APIがステータス %d を返しました (users/me)", resp.StatusCode)
	}

	var user calendlyUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("Calendlyレスポンスのパースに失敗しました: %w", err)
	}
	if user.Resource.URI == "" {
		return "", fmt.Errorf("CalendlyレスポンスにユーザーURIがありません")
	}
	return user.Resource.URI, nil
}

// fetchEvents は指定範囲のactiveな予定を取得する。
func (c *CalendlyImporter) fetchEvents(ctx context.Context, userURI string, from, to time.Time) ([]calendlyEvent, error) {
	q := url.Values{}
	q.Set("min_start_time", from.UTC().Format(time.RFC3339))
	q.Set("max_start_time", to.UTC().Format(time.RFC3339))
	q.Set("status", "active")
	q.Set("user", userURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/scheduled_events?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Calendly APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Calendly APIがステータス %d を返しました (scheduled_events)", resp.StatusCode)
	}

	var collection calendlyCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("Calendlyレスポンスのパースに失敗しました: %w", err)
	}
	return collection.Collection, nil
}
