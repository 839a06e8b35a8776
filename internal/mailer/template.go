// Package mailer は認証イベントメールのテンプレート描画と
// トランザクショナルメールAPIへの送信を提供する。
package mailer

import (
	"html/template"
	"strings"
)

// RenderedMail はテンプレート描画結果の件名とHTML本文。
type RenderedMail struct {
	Subject string
	HTML    string
}

// authMailCopy はアクション種別ごとの件名と説明文。
type authMailCopy struct {
	subject     string
	description string
}

// authMailTable はアクション種別から文面への固定ルックアップテーブル。
// 未知のアクション種別はgenericAuthMailにフォールバックする。
var authMailTable = map[string]authMailCopy{
	"signup": {
		subject:     "Welcome to MailFlow — Confirm Your Email",
		description: "Click the button below to confirm your email and get started:",
	},
	"login": {
		subject:     "Your MailFlow Login Link",
		description: "Click the button below to sign in to your account:",
	},
	"magiclink": {
		subject:     "Your MailFlow Login Link",
		description: "Click the button below to sign in to your account:",
	},
	"recovery": {
		subject:     "Your MailFlow Login Link",
		description: "Click the button below to sign in to your account:",
	},
	"email_change": {
		subject:     "Confirm Email Change",
		description: "Click the button below to confirm your email change:",
	},
}

// genericAuthMail は未知のアクション種別に対するフォールバック文面。
var genericAuthMail = authMailCopy{
	subject:     "Your MailFlow Login Link",
	description: "Click the button below to sign in to your account:",
}

// authMailTemplate はメールクライアント互換のテーブルレイアウトHTML。
// ConfirmURLはhtml/templateにより属性コンテキストでエスケープされる。
var authMailTemplate = template.Must(template.New("auth_mail").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f4f4f5;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f4f5;padding:40px 20px;">
    <tr><td align="center">
      <table width="400" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:12px;overflow:hidden;box-shadow:0 4px 6px rgba(0,0,0,0.07);">
        <tr><td style="background:linear-gradient(135deg,#0d9488,#14b8a6);padding:32px;text-align:center;">
          <h1 style="color:#ffffff;margin:0;font-size:24px;font-weight:700;">MailFlow</h1>
        </td></tr>
        <tr><td style="padding:32px;">
          <p style="color:#52525b;font-size:15px;line-height:1.6;margin:0 0 24px;">{{.Description}}</p>
          <div style="text-align:center;margin:0 0 24px;">
            <a href="{{.ConfirmURL}}" style="display:inline-block;background:linear-gradient(135deg,#0d9488,#14b8a6);color:#ffffff;text-decoration:none;padding:14px 32px;border-radius:8px;font-size:16px;font-weight:600;">Sign In to MailFlow</a>
          </div>
          <p style="color:#a1a1aa;font-size:13px;line-height:1.5;margin:0;">This link expires in 10 minutes. If you didn't request this, please ignore this email.</p>
        </td></tr>
        <tr><td style="background-color:#f4f4f5;padding:16px 32px;text-align:center;">
          <p style="color:#a1a1aa;font-size:12px;margin:0;">&copy; MailFlow</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

// RenderAuthMail はアクション種別と確認URLから件名とHTML本文を生成する。
// 純粋関数であり、I/Oや状態を持たない。配送は呼び出し側の責務。
func RenderAuthMail(actionType, confirmURL string) RenderedMail {
	c, ok := authMailTable[actionType]
	if !ok {
		c = genericAuthMail
	}

	var buf strings.Builder
	// テンプレートは固定のため実行時エラーは起きない。
	// 万一の失敗時も空本文より件名だけのメールを優先する。
	_ = authMailTemplate.Execute(&buf, struct {
		Description string
		ConfirmURL  string
	}{
		Description: c.description,
		ConfirmURL:  confirmURL,
	})

	return RenderedMail{
		Subject: c.subject,
		HTML:    buf.String(),
	}
}
