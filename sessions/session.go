package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Well known session keys.
const (
	// KeyLoginState holds the in-flight login (LoginState).
	KeyLoginState = "socialaccount_state"
	// KeyCustomDomain remembers the My Domain prefix used for the custom tier.
	KeyCustomDomain = "custom_domain"
)

// LoginState tracks one authorization round trip between the login dispatch
// and the provider callback.
type LoginState struct {
	Verifier     string    `json:"verifier"`        // Correlation token, also sent as the OAuth state
	CodeVerifier string    `json:"code_verifier"`   // PKCE code verifier
	Provider     string    `json:"provider"`        // Provider id the login started with
	Next         string    `json:"next,omitempty"`  // Where to send the browser after login
	CreatedAt    time.Time `json:"created_at"`      // When the login was dispatched
	Nonce        string    `json:"nonce,omitempty"` // OpenID nonce, checked when id tokens are verified
}

// Session is the browser session. It is keyed by an opaque id carried in a
// cookie and lives in a Repo between requests.
type Session struct {
	ID         string            `json:"id"`
	Values     map[string]string `json:"values,omitempty"`
	LoginState *LoginState       `json:"socialaccount_state,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// New creates an empty session that expires after ttl.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Values:    make(map[string]string),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}

func (s *Session) Delete(key string) {
	delete(s.Values, key)
}

// Verifier returns the correlation token of the in-flight login, or "".
func (s *Session) Verifier() string {
	if s == nil || s.LoginState == nil {
		return ""
	}
	return s.LoginState.Verifier
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	if s.LoginState != nil {
		ls := *s.LoginState
		c.LoginState = &ls
	}
	return &c
}

// Repo stores sessions between requests. Implementations are safe for
// concurrent use.
type Repo interface {
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*Session, error)
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
