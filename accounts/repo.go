package accounts

import "context"

// Repo persists completed logins keyed by provider and external user id.
type Repo interface {
	// Save inserts or updates the login. On update the extra data, user and
	// token are replaced and DateJoined is kept.
	Save(ctx context.Context, login *SocialLogin) error
	// Get returns ErrNotFound when no login is stored for the key.
	Get(ctx context.Context, provider, uid string) (*SocialLogin, error)
	Delete(ctx context.Context, provider, uid string) error
}
