package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultResendEndpoint はResendのメール送信APIのエンドポイント。
const defaultResendEndpoint = "https://api.resend.com/emails"

// ResendClient はResendトランザクショナルメールAPIのクライアント。
// APIキーが未設定の場合、SendはログのみでNo-opとして成功扱いになる。
type ResendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	from       string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewResendClient はResendClientの新しいインスタンスを生成する。
func NewResendClient(httpClient *http.Client, logger *slog.Logger, apiKey, from string) *ResendClient {
	return &ResendClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		from:       from,
		endpoint:   defaultResendEndpoint,
	}
}

// SetEndpoint はAPIエンドポイントを差し替える。テスト用。
func (c *ResendClient) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// sendMailRequest はResend送信APIのリクエストボディ。
type sendMailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send は1通のHTMLメールを送信する。
// APIキー未設定の場合は設定不備としてログに記録し、エラーなしで返る。
// 送信失敗時はエラーを返す。リトライは行わない。
func (c *ResendClient) Send(ctx context.Context, to, subject, html string) error {
	if c.apiKey == "" {
		c.logger.Warn("RESEND_API_KEY is not configured, skipping mail send",
			slog.String("subject", subject),
		)
		return nil
	}

	payload, err := json.Marshal(sendMailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("メール送信リクエストの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("メール送信APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("メール送信APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("メール送信APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("response", string(body)),
		)
		return fmt.Errorf("メール送信APIがステータス %d を返しました", resp.StatusCode)
	}

	c.logger.Info("transactional mail sent",
		slog.String("subject", subject),
		slog.Int("http_status", resp.StatusCode),
	)

	return nil
}
