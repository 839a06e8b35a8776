// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/krithikvarshan1/inbox-linker/internal/auth"
	"github.com/krithikvarshan1/inbox-linker/internal/config"
	"github.com/krithikvarshan1/inbox-linker/internal/connection"
	"github.com/krithikvarshan1/inbox-linker/internal/database"
	"github.com/krithikvarshan1/inbox-linker/internal/email"
	"github.com/krithikvarshan1/inbox-linker/internal/handler"
	"github.com/krithikvarshan1/inbox-linker/internal/logger"
	"github.com/krithikvarshan1/inbox-linker/internal/mailer"
	"github.com/krithikvarshan1/inbox-linker/internal/metrics"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
	"github.com/krithikvarshan1/inbox-linker/internal/realtime"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
	"github.com/krithikvarshan1/inbox-linker/internal/security"
	"github.com/krithikvarshan1/inbox-linker/internal/sender"
	"github.com/krithikvarshan1/inbox-linker/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーと
// リアルタイム通知リスナーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresLoginTokenRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	senderRepo := repository.NewPostgresSenderRepo(db)
	connRepo := repository.NewPostgresConnectionRepo(db)
	emailRepo := repository.NewPostgresEmailRepo(db)

	// 3. セキュリティサービスの初期化
	redirectGuard := security.NewRedirectGuard()
	sanitizer := security.NewContentSanitizer()

	// 外部APIとの通信にはSSRF対策済みクライアントを使う
	safeClient := redirectGuard.NewSafeClient(10 * time.Second)

	// 4. ドメインサービスの初期化
	gmailProvider := auth.NewGmailOAuthProvider(auth.GmailOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/gmail/callback",
		HTTPClient:   safeClient,
	})
	outlookProvider := auth.NewOutlookOAuthProvider(auth.OutlookOAuthConfig{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/outlook/callback",
		HTTPClient:   safeClient,
	})
	connectService := auth.NewConnectService(
		[]auth.OAuthProvider{gmailProvider, outlookProvider},
		connRepo, redirectGuard, cfg.AppOrigin,
	)

	mailSender := mailer.NewResendClient(safeClient, slog.Default(), cfg.ResendAPIKey, cfg.MailFrom)
	loginService := auth.NewLoginService(
		userRepo, tokenRepo, sessionRepo, mailSender,
		auth.LoginServiceConfig{
			BaseURL:       cfg.BaseURL,
			AppOrigin:     cfg.AppOrigin,
			TokenTTL:      cfg.LoginTokenTTL,
			SessionMaxAge: cfg.SessionMaxAge,
		},
	)

	senderService := sender.NewService(senderRepo)
	connectionService := connection.NewService(connRepo)
	emailService := email.NewService(emailRepo, senderRepo, sanitizer)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. リアルタイム通知の初期化
	hub := realtime.NewHub()
	listener := realtime.NewListener(cfg.DatabaseURL, hub, slog.Default())

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレートはreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SenderRegRate = rate.Limit(float64(cfg.RateLimitSenderReg) / 60.0)
	rateLimiterCfg.SenderRegBurst = cfg.RateLimitSenderReg
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: cfg.CookieSecure,
		CookieDomain: cfg.CookieDomain,
	}

	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig:        csrfConfig,

		AuthService: loginService,
		AuthConfig: handler.AuthHandlerConfig{
			AppOrigin:     cfg.AppOrigin,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		ConnectService: connectService,

		SenderService:     senderService,
		ConnectionService: connectionService,
		EmailService:      emailService,

		Hub: hub,

		HookMailSender: mailSender,
		HookConfig: handler.HookHandlerConfig{
			BaseURL: cfg.BaseURL,
			Enabled: cfg.ResendAPIKey != "",
		},

		Metrics:  collector,
		Gatherer: registry,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSEストリームのためレスポンス書き込みタイムアウトは設けない
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// リアルタイム通知リスナーをバックグラウンドで起動
	go func() {
		if err := listener.Run(ctx); err != nil {
			slog.Error("realtime listener stopped", slog.String("error", err.Error()))
		}
	}()

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れ認証データのクリーンアップジョブを日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting")

	// 起動直後に1回実行
	if err := cleanupJob.Run(ctx); err != nil {
		slog.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped gracefully")
			return nil
		case <-ticker.C:
			if err := cleanupJob.Run(ctx); err != nil {
				slog.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
