package config

import "time"

type SecurityConfig interface {
	GetEncryptionKey() string
	GetSessionSigningKey() string
	GetMaxSessionAge() time.Duration
	GetLoginSessionTTL() time.Duration
	GetCookieSecure() bool
}

// GetEncryptionKey returns the process-wide token encryption key (base64).
func (s *Settings) GetEncryptionKey() string { return s.Security.EncryptionKey }

func (s *Settings) GetSessionSigningKey() string { return s.Security.SessionSigningKey }

// GetMaxSessionAge is the lifetime of the browser session that carries the
// OAuth state between login and callback.
func (s *Settings) GetMaxSessionAge() time.Duration { return s.Security.SessionTTL }

// GetLoginSessionTTL is the lifetime of the signed session cookie issued
// after a completed login.
func (s *Settings) GetLoginSessionTTL() time.Duration { return s.Security.LoginSessionTTL }

func (s *Settings) GetCookieSecure() bool { return s.Security.CookieSecure }
