package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CharacterIDFromToken extracts the character id from an SSO access token.
// The JWT subject claim has the form "CHARACTER:EVE:<id>". The signature is
// not verified; the token came straight from the SSO token endpoint.
func CharacterIDFromToken(accessToken string) (int64, error) {
	parts := strings.Split(accessToken, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed jwt")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, fmt.Errorf("decode jwt payload: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, fmt.Errorf("parse jwt claims: %w", err)
	}

	sub := strings.Split(claims.Sub, ":")
	if len(sub) != 3 || sub[0] != "CHARACTER" {
		return 0, fmt.Errorf("unexpected subject %q", claims.Sub)
	}
	id, err := strconv.ParseInt(sub[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse character id from %q: %w", claims.Sub, err)
	}
	return id, nil
}
