// Package auth handles EVE SSO tokens for the authenticated ESI endpoints.
package auth

import (
	"database/sql"
	"fmt"
	"time"

	"eve-tradeworks/internal/logger"
)

// Session is a stored character login.
type Session struct {
	CharacterID   int64
	CharacterName string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
}

// SessionStore persists the session in SQLite. The tool is single-user;
// there is at most one stored session.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a store backed by the given SQL database.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save stores or replaces the session.
func (s *SessionStore) Save(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}
	_, err := s.db.Exec(`
		INSERT INTO auth_session (id, character_id, character_name, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			character_id = excluded.character_id,
			character_name = excluded.character_name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at`,
		sess.CharacterID, sess.CharacterName, sess.AccessToken, sess.RefreshToken, sess.ExpiresAt.Unix(),
	)
	return err
}

// Get returns the stored session, or nil if none.
func (s *SessionStore) Get() *Session {
	var sess Session
	var expiresUnix int64
	err := s.db.QueryRow(`
		SELECT character_id, character_name, access_token, refresh_token, expires_at
		FROM auth_session WHERE id = 1`).
		Scan(&sess.CharacterID, &sess.CharacterName, &sess.AccessToken, &sess.RefreshToken, &expiresUnix)
	if err != nil {
		return nil
	}
	sess.ExpiresAt = time.Unix(expiresUnix, 0)
	return &sess
}

// Delete removes the stored session.
func (s *SessionStore) Delete() {
	s.db.Exec("DELETE FROM auth_session WHERE id = 1")
}

// EnsureValidToken returns a valid access token, refreshing through SSO if
// the stored one expires within 60 seconds.
func (s *SessionStore) EnsureValidToken(sso *SSOConfig) (string, error) {
	sess := s.Get()
	if sess == nil {
		return "", fmt.Errorf("not logged in")
	}
	if time.Now().Before(sess.ExpiresAt.Add(-60 * time.Second)) {
		return sess.AccessToken, nil
	}
	if sso == nil {
		return "", fmt.Errorf("sso not configured")
	}

	logger.Info("Auth", "Refreshing token for %s", sess.CharacterName)
	tok, err := sso.RefreshToken(sess.RefreshToken)
	if err != nil {
		s.Delete()
		return "", fmt.Errorf("refresh failed: %w", err)
	}

	sess.AccessToken = tok.AccessToken
	sess.RefreshToken = tok.RefreshToken
	sess.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if err := s.Save(sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return sess.AccessToken, nil
}
