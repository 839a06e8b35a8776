package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// OAuthState はOAuthリダイレクトを往復する一時的なコンテキスト。
// base64エンコードされたJSONとしてstateパラメータに載せられ、永続化されない。
// エンコードとデコードは正確にラウンドトリップしなければならない。
type OAuthState struct {
	UserID      string `json:"user_id"`
	RedirectURL string `json:"redirect_url"`
}

// EncodeState はOAuthStateをbase64 JSON文字列にエンコードする。
func EncodeState(state OAuthState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode oauth state: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeState はbase64 JSON文字列からOAuthStateを復元する。
// 不正な形式のstateは回復不能なエラーとして扱われる。
func DecodeState(encoded string) (OAuthState, error) {
	var state OAuthState

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return state, fmt.Errorf("failed to decode oauth state: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to parse oauth state: %w", err)
	}

	if state.UserID == "" {
		return state, fmt.Errorf("oauth state is missing user_id")
	}

	return state, nil
}
