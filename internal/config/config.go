// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth (Gmail)
	GoogleClientID     string
	GoogleClientSecret string

	// OAuth (Outlook)
	MicrosoftClientID     string
	MicrosoftClientSecret string

	// OAuthコールバックの受け口となるサーバー自身の公開URL。
	// 各プロバイダーのredirect_uriは BaseURL + /oauth/{provider}/callback になる。
	BaseURL string

	// リダイレクト先のデフォルトとなるフロントエンドのオリジン。
	// OAuth stateのredirect_urlが欠落・不正な場合にフォールバックする。
	AppOrigin string

	// Session
	SessionSecret string
	SessionMaxAge int

	// マジックリンクの有効期間
	LoginTokenTTL time.Duration

	// Mail (Resend)
	ResendAPIKey string
	MailFrom     string

	// Rate Limit（req/min/user）
	RateLimitGeneral   int
	RateLimitSenderReg int

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// OAuthクライアントIDとResend APIキーは任意であり、未設定の場合は
// 該当機能が設定不備として縮退する（認可開始は400、メール送信はno-op）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.AppOrigin = os.Getenv("APP_ORIGIN")
	if cfg.AppOrigin == "" {
		missing = append(missing, "APP_ORIGIN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.MicrosoftClientID = os.Getenv("MICROSOFT_CLIENT_ID")
	cfg.MicrosoftClientSecret = os.Getenv("MICROSOFT_CLIENT_SECRET")
	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")

	// Optional fields with defaults
	cfg.MailFrom = getEnvString("MAIL_FROM", "MailFlow <onboarding@resend.dev>")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.LoginTokenTTL = getEnvDuration("LOGIN_TOKEN_TTL", 10*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSenderReg = getEnvInt("RATE_LIMIT_SENDER_REG", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", cfg.AppOrigin)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
