package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// notifyChannel はデータベーストリガーが通知するチャネル名。
const notifyChannel = "email_inserted"

// pingInterval は通知が途絶えた場合に接続を確認する間隔。
const pingInterval = 90 * time.Second

// Listener はPostgreSQLのLISTEN/NOTIFYでメール挿入通知を受信し、
// Hubに転送する。接続断時はlib/pqが指数バックオフで自動再接続する。
type Listener struct {
	pqListener *pq.Listener
	hub        *Hub
	logger     *slog.Logger
}

// NewListener はListenerの新しいインスタンスを生成する。
// connStrはデータベース接続文字列。
func NewListener(connStr string, hub *Hub, logger *slog.Logger) *Listener {
	pqListener := pq.NewListener(connStr, 10*time.Second, time.Minute,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("database listener event",
					slog.Int("event_type", int(event)),
					slog.String("error", err.Error()),
				)
			}
		})

	return &Listener{
		pqListener: pqListener,
		hub:        hub,
		logger:     logger,
	}
}

// Run は通知の受信ループを開始する。
// コンテキストのキャンセルまでブロックする。
func (l *Listener) Run(ctx context.Context) error {
	if err := l.pqListener.Listen(notifyChannel); err != nil {
		return err
	}
	defer l.pqListener.Close()

	l.logger.Info("realtime listener started", slog.String("channel", notifyChannel))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("realtime listener stopped")
			return nil

		case notification := <-l.pqListener.Notify:
			// 再接続時はnilが送られてくる
			if notification == nil {
				continue
			}
			l.handleNotification(notification.Extra)

		case <-time.After(pingInterval):
			if err := l.pqListener.Ping(); err != nil {
				l.logger.Error("listener ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handleNotification は通知ペイロードをデコードしてHubに配信する。
// 不正なペイロードはログに記録して破棄する。
func (l *Listener) handleNotification(payload string) {
	var event model.EmailInsertEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logger.Error("failed to decode notification payload",
			slog.String("error", err.Error()),
		)
		return
	}
	if event.UserID == "" {
		l.logger.Warn("notification payload missing user_id, dropped")
		return
	}

	l.hub.Publish(event)
}
