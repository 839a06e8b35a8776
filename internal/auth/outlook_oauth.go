package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

const (
	defaultMicrosoftAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	defaultMicrosoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	defaultMicrosoftMeURL    = "https://graph.microsoft.com/v1.0/me"
)

// outlookScopes は読み取り専用のメールスコープとプロフィール取得スコープ。
// offline_accessによりリフレッシュトークンが発行される。
var outlookScopes = []string{
	"offline_access",
	"https://graph.microsoft.com/Mail.Read",
	"https://graph.microsoft.com/User.Read",
}

// OutlookOAuthConfig はOutlook連携プロバイダーの設定。
type OutlookOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
	MeURL    string

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// OutlookOAuthProvider はMicrosoft Outlookとの OAuth 2.0 連携を提供する。
// commonテナントのエンドポイントを使用し、個人・組織アカウントの両方を受け付ける。
type OutlookOAuthProvider struct {
	config OutlookOAuthConfig
}

// NewOutlookOAuthProvider はOutlookOAuthProviderを生成する。
func NewOutlookOAuthProvider(config OutlookOAuthConfig) *OutlookOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultMicrosoftAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultMicrosoftTokenURL
	}
	if config.MeURL == "" {
		config.MeURL = defaultMicrosoftMeURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &OutlookOAuthProvider{config: config}
}

// Name はプロバイダー種別を返す。
func (p *OutlookOAuthProvider) Name() model.Provider {
	return model.ProviderOutlook
}

// AuthorizationURL はMicrosoftの認可URLを生成する。
func (p *OutlookOAuthProvider) AuthorizationURL(state string) (string, error) {
	if p.config.ClientID == "" {
		return "", fmt.Errorf("microsoft client ID is not configured")
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"response_mode": {"query"},
		"scope":         {strings.Join(outlookScopes, " ")},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode(), nil
}

// microsoftTokenResponse はMicrosoftのトークンエンドポイントのレスポンス。
type microsoftTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// ExchangeCode は認可コードをトークン一式に交換する。
func (p *OutlookOAuthProvider) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp microsoftTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

// microsoftUserInfo はMicrosoft Graphの/meエンドポイントのレスポンス。
// mailが未設定のアカウントではuserPrincipalNameにフォールバックする。
type microsoftUserInfo struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// FetchMailboxEmail はアクセストークンで連携先メールボックスのアドレスを取得する。
func (p *OutlookOAuthProvider) FetchMailboxEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.MeURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo microsoftUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return "", fmt.Errorf("failed to parse user info response: %w", err)
	}

	email := userInfo.Mail
	if email == "" {
		email = userInfo.UserPrincipalName
	}
	if email == "" {
		return "", fmt.Errorf("empty email in user info response")
	}

	return email, nil
}

// DeniedMessage は認可拒否時の表示メッセージを返す。
func (p *OutlookOAuthProvider) DeniedMessage() string {
	return "Microsoft authorization was denied"
}

// compile-time interface check
var _ OAuthProvider = (*OutlookOAuthProvider)(nil)
