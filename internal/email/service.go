// Package email は同期済みメールの閲覧とエクスポートのドメインロジックを提供する。
package email

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
	"github.com/krithikvarshan1/inbox-linker/internal/security"
)

// EmailView はメール一覧の表示用ドメインオブジェクト。
// ContentはサニタイズされたHTML、Snippetはプレーンテキストの冒頭部分。
type EmailView struct {
	ID          string
	SenderEmail string
	Subject     string
	Content     string
	Snippet     string
	ReceivedAt  time.Time
}

// snippetMaxLength はスニペットの最大文字数。
const snippetMaxLength = 120

// Service は同期済みメールの閲覧サービス層。
// emailsテーブルへの挿入は外部の同期プロセスが行うため、読み取りのみを提供する。
type Service struct {
	emailRepo  repository.EmailRepository
	senderRepo repository.SenderRepository
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	emailRepo repository.EmailRepository,
	senderRepo repository.SenderRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		emailRepo:  emailRepo,
		senderRepo: senderRepo,
		sanitizer:  sanitizer,
	}
}

// List は指定送信者のメール一覧を返す。
// filterは件名と本文に対する大文字小文字を区別しない部分一致。
// orderは受信日時のソート順で、空の場合はdescとして扱う。
// 本文はサニタイズ済みHTMLとして返す。
func (s *Service) List(ctx context.Context, userID, senderID, filter string, order model.SortOrder) ([]EmailView, error) {
	if order == "" {
		order = model.SortOrderDesc
	}
	if order != model.SortOrderAsc && order != model.SortOrderDesc {
		return nil, model.NewInvalidSortOrderError(string(order))
	}

	_, filtered, err := s.listFiltered(ctx, userID, senderID, filter)
	if err != nil {
		return nil, err
	}

	// リポジトリはreceived_at降順で返す。昇順指定時のみ並べ替える。
	if order == model.SortOrderAsc {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].ReceivedAt.Before(filtered[j].ReceivedAt)
		})
	}

	results := make([]EmailView, len(filtered))
	for i, e := range filtered {
		plain := extractText(e.Content)
		results[i] = EmailView{
			ID:          e.ID,
			SenderEmail: e.SenderEmail,
			Subject:     e.Subject,
			Content:     s.sanitizer.Sanitize(e.Content),
			Snippet:     truncateRunes(plain, snippetMaxLength),
			ReceivedAt:  e.ReceivedAt,
		}
	}

	return results, nil
}

// listFiltered は所有者チェックを行い、対象の送信者と絞り込み済みの
// メール一覧をリポジトリの取得順（received_at降順）のまま返す。
func (s *Service) listFiltered(ctx context.Context, userID, senderID, filter string) (*model.TrackedSender, []*model.TrackedEmail, error) {
	sender, err := s.senderRepo.FindByID(ctx, senderID)
	if err != nil {
		return nil, nil, fmt.Errorf("送信者の取得に失敗しました: %w", err)
	}
	if sender == nil || sender.UserID != userID {
		return nil, nil, model.NewSenderNotFoundError(senderID)
	}

	emails, err := s.emailRepo.ListBySenderMailID(ctx, sender.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("メール一覧の取得に失敗しました: %w", err)
	}

	return sender, filterEmails(emails, filter), nil
}

// filterEmails は件名と本文の部分一致でメールを絞り込む。
// 空のフィルタは全件を返す。
func filterEmails(emails []*model.TrackedEmail, filter string) []*model.TrackedEmail {
	if filter == "" {
		return emails
	}

	needle := strings.ToLower(filter)
	results := make([]*model.TrackedEmail, 0, len(emails))
	for _, e := range emails {
		if strings.Contains(strings.ToLower(e.Subject), needle) ||
			strings.Contains(strings.ToLower(e.Content), needle) {
			results = append(results, e)
		}
	}
	return results
}

// extractText はHTML本文からプレーンテキストを抽出する。
// script/styleタグの内容は無視し、連続する空白は1つにまとめる。
// HTMLとして不完全な入力でもhtml.Parseは寛容に処理する。
func extractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return strings.TrimSpace(rawHTML)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// truncateRunes は文字列を最大n文字に切り詰める。
// マルチバイト文字の途中で切れないようルーン単位で処理する。
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
