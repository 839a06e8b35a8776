// Package realtime はメール挿入イベントのリアルタイム配信を提供する。
//
// emailsテーブルへの挿入はデータベーストリガーがpg_notifyで通知し、
// Listenerが受信してHub経由で該当ユーザーのSSE接続に配信される。
// 通知は配信保証のないベストエフォートであり、購読開始前に挿入された
// メールはイベントとして届かない。一覧の再取得が常に正となる。
package realtime

import (
	"sync"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// subscriberBufferSize は購読者ごとのイベントバッファ数。
// バッファが満杯の購読者へのイベントは破棄される（遅い購読者が
// 他の購読者の配信を妨げない）。
const subscriberBufferSize = 16

// Hub はユーザーごとのイベント購読を管理するファンアウトハブ。
// 全メソッドは複数goroutineから安全に呼び出せる。
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan model.EmailInsertEvent]struct{}
}

// NewHub はHubの新しいインスタンスを生成する。
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan model.EmailInsertEvent]struct{}),
	}
}

// Subscribe は指定ユーザーのイベント購読を開始する。
// 返却されたチャネルは購読解除関数の呼び出しでクローズされる。
func (h *Hub) Subscribe(userID string) (<-chan model.EmailInsertEvent, func()) {
	ch := make(chan model.EmailInsertEvent, subscriberBufferSize)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan model.EmailInsertEvent]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[userID], ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Publish はイベントを該当ユーザーの全購読者に配信する。
// 購読者がいない場合は何もしない。
func (h *Hub) Publish(event model.EmailInsertEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
			// バッファ満杯の購読者はスキップ
		}
	}
}

// SubscriberCount は指定ユーザーの現在の購読者数を返す。
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// TotalSubscribers は全ユーザー合計の購読者数を返す。
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
