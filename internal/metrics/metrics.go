// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ボットルーターとリマインダーワーカー、インポーターから利用する。
type Collector struct {
	commands      *prometheus.CounterVec
	commandErrors *prometheus.CounterVec
	routeDuration prometheus.Histogram
	remindersSent prometheus.Counter
	importEvents  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calman_commands_total",
			Help: "処理したコマンドの合計数（unknownは未知コマンド）",
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calman_command_errors_total",
			Help: "エラー種別ごとのコマンド失敗数",
		}, []string{"kind"}),
		routeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calman_route_duration_seconds",
			Help:    "コマンドルーティングの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calman_reminders_sent_total",
			Help: "送信したリマインダー通知の合計数",
		}),
		importEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calman_import_events_total",
			Help: "外部カレンダー取り込みの結果別予定数",
		}, []string{"source", "result"}),
	}

	reg.MustRegister(
		c.commands,
		c.commandErrors,
		c.routeDuration,
		c.remindersSent,
		c.importEvents,
	)

	return c
}

// RecordCommand はコマンドの受信を記録する。
func (c *Collector) RecordCommand(name string) {
	c.commands.WithLabelValues(name).Inc()
}

// RecordCommandError はエラー種別ごとの失敗を記録する。
func (c *Collector) RecordCommandError(kind string) {
	c.commandErrors.WithLabelValues(kind).Inc()
}

// RecordRouteDuration はルーティング処理時間を記録する。
func (c *Collector) RecordRouteDuration(d time.Duration) {
	c.routeDuration.Observe(d.Seconds())
}

// RecordReminderSent はリマインダー通知の送信を記録する。
func (c *Collector) RecordReminderSent() {
	c.remindersSent.Inc()
}

// RecordImport は取り込んだ予定の結果（added/skipped/failed）を記録する。
func (c *Collector) RecordImport(source, result string, count int) {
	c.importEvents.WithLabelValues(source, result).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
