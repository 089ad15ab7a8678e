package store

import (
	"encoding/json"
	"log/slog"
)

// User is the account returned by the login endpoint.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session keeps the bearer token and user in storage under fixed keys.
type Session struct {
	storage Storage
	logger  *slog.Logger
}

// NewSession returns a session backed by storage.
func NewSession(storage Storage, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{storage: storage, logger: logger}
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Session) Token() string {
	data, ok, err := s.storage.Get(KeyAccessToken)
	if err != nil {
		s.logger.Warn("reading access token", "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	return string(data)
}

// User returns the stored user, or nil.
func (s *Session) User() *User {
	data, ok, err := s.storage.Get(KeyUser)
	if err != nil || !ok {
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		s.logger.Warn("stored user is corrupt", "err", err)
		return nil
	}
	return &u
}

// Save stores the token and user after a successful login.
func (s *Session) Save(token string, u *User) error {
	if err := s.storage.Set(KeyAccessToken, []byte(token)); err != nil {
		return err
	}
	if u == nil {
		return s.storage.Remove(KeyUser)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.storage.Set(KeyUser, data)
}

// Clear forgets the token and user.
func (s *Session) Clear() {
	if err := s.storage.Remove(KeyAccessToken); err != nil {
		s.logger.Warn("clearing access token", "err", err)
	}
	if err := s.storage.Remove(KeyUser); err != nil {
		s.logger.Warn("clearing user", "err", err)
	}
}
