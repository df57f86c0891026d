package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tokenURL = "https://login.eveonline.com/v2/oauth/token"

// SSOConfig holds the EVE SSO application credentials.
type SSOConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       string
}

// TokenResponse is the SSO token grant response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// BuildAuthURL builds the authorization-code URL the user opens in a browser.
func (c *SSOConfig) BuildAuthURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.CallbackURL)
	q.Set("scope", c.Scopes)
	q.Set("state", state)
	return "https://login.eveonline.com/v2/oauth/authorize?" + q.Encode()
}

// GenerateState returns a random state value for the OAuth flow.
func GenerateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// ExchangeCode trades an authorization code for tokens.
func (c *SSOConfig) ExchangeCode(code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	return c.tokenRequest(form)
}

// RefreshToken trades a refresh token for a fresh access token.
func (c *SSOConfig) RefreshToken(refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(form)
}

func (c *SSOConfig) tokenRequest(form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequest("POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sso %d: %s", resp.StatusCode, string(body))
	}

	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}
