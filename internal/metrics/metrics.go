// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordOAuthExchangeSuccess(provider string)
	RecordOAuthExchangeFailure(provider string)
	RecordMailSent(actionType string)
	RecordMailSendFailure(actionType string)
	RecordRealtimeEvent()
	SetActiveStreams(count int)
	RecordCSVExport()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	oauthExchangeSuccess *prometheus.CounterVec
	oauthExchangeFail    *prometheus.CounterVec
	mailSent             *prometheus.CounterVec
	mailSendFail         *prometheus.CounterVec
	realtimeEvents       prometheus.Counter
	activeStreams        prometheus.Gauge
	csvExports           prometheus.Counter
	httpStatus           *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		oauthExchangeSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailflow_oauth_exchange_success_total",
			Help: "OAuth認可コード交換成功の合計数",
		}, []string{"provider"}),
		oauthExchangeFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailflow_oauth_exchange_fail_total",
			Help: "OAuth認可コード交換失敗の合計数",
		}, []string{"provider"}),
		mailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailflow_auth_mail_sent_total",
			Help: "認証メール送信成功の合計数",
		}, []string{"action_type"}),
		mailSendFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailflow_auth_mail_fail_total",
			Help: "認証メール送信失敗の合計数",
		}, []string{"action_type"}),
		realtimeEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailflow_realtime_events_total",
			Help: "配信されたリアルタイムイベントの合計数",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailflow_active_streams",
			Help: "現在アクティブなSSE接続数",
		}),
		csvExports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailflow_csv_exports_total",
			Help: "CSVエクスポートの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailflow_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.oauthExchangeSuccess,
		c.oauthExchangeFail,
		c.mailSent,
		c.mailSendFail,
		c.realtimeEvents,
		c.activeStreams,
		c.csvExports,
		c.httpStatus,
	)

	return c
}

// RecordOAuthExchangeSuccess はOAuth交換成功を記録する。
func (c *Collector) RecordOAuthExchangeSuccess(provider string) {
	c.oauthExchangeSuccess.WithLabelValues(provider).Inc()
}

// RecordOAuthExchangeFailure はOAuth交換失敗を記録する。
func (c *Collector) RecordOAuthExchangeFailure(provider string) {
	c.oauthExchangeFail.WithLabelValues(provider).Inc()
}

// RecordMailSent は認証メール送信成功を記録する。
func (c *Collector) RecordMailSent(actionType string) {
	c.mailSent.WithLabelValues(actionType).Inc()
}

// RecordMailSendFailure は認証メール送信失敗を記録する。
func (c *Collector) RecordMailSendFailure(actionType string) {
	c.mailSendFail.WithLabelValues(actionType).Inc()
}

// RecordRealtimeEvent はリアルタイムイベント配信を記録する。
func (c *Collector) RecordRealtimeEvent() {
	c.realtimeEvents.Inc()
}

// SetActiveStreams は現在のSSE接続数を記録する。
func (c *Collector) SetActiveStreams(count int) {
	c.activeStreams.Set(float64(count))
}

// RecordCSVExport はCSVエクスポートを記録する。
func (c *Collector) RecordCSVExport() {
	c.csvExports.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
