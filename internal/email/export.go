package email

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

// exportContentMaxLength はCSVのContent列の最大文字数。
const exportContentMaxLength = 500

// csvHeader はエクスポートCSVの固定ヘッダー行。
var csvHeader = []string{"Sender Email", "Subject", "Received Date", "Received Time", "Content"}

// ExportResult はCSVエクスポートの結果。
type ExportResult struct {
	Filename string
	Data     []byte
}

// ExportCSV は現在の絞り込み条件を反映したメール一覧をCSVとして生成する。
// 画面のソート指定は反映せず、常にリポジトリの取得順（received_at降順）で出力する。
// Content列はプレーンテキスト化して500文字に切り詰める。
// ファイル名は「<送信者アドレス>-<yyyy-MM-dd>.csv」の形式。
func (s *Service) ExportCSV(ctx context.Context, userID, senderID, filter string, now time.Time) (*ExportResult, error) {
	sender, emails, err := s.listFiltered(ctx, userID, senderID, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}

	for _, v := range emails {
		record := []string{
			v.SenderEmail,
			v.Subject,
			v.ReceivedAt.Format("2006-01-02"),
			v.ReceivedAt.Format("15:04:05"),
			truncateRunes(extractText(v.Content), exportContentMaxLength),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("CSVレコードの書き込みに失敗しました: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("CSVの生成に失敗しました: %w", err)
	}

	name := sender.Email
	if name == "" {
		name = "emails"
	}
	filename := fmt.Sprintf("%s-%s.csv", name, now.Format("2006-01-02"))

	return &ExportResult{
		Filename: filename,
		Data:     buf.Bytes(),
	}, nil
}
