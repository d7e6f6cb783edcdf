package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

// Repo keeps sessions in process memory. Sessions are lost on restart and
// are not shared between instances; use redisrepo for that.
type Repo struct {
	c *gocache.Cache
}

func New(defaultTTL time.Duration) *Repo {
	return &Repo{c: gocache.New(defaultTTL, time.Minute)}
}

func (r *Repo) Get(_ context.Context, id string) (*sessions.Session, error) {
	v, ok := r.c.Get(id)
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	s, ok := v.(*sessions.Session)
	if !ok || s.Expired(time.Now()) {
		return nil, apperrors.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *Repo) Save(_ context.Context, s *sessions.Session) error {
	if s.ID == "" {
		return apperrors.Wrapf(apperrors.ErrInternal, "[memory Save] session has no id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		r.c.Delete(s.ID)
		return nil
	}
	r.c.Set(s.ID, s.Clone(), ttl)
	return nil
}

func (r *Repo) Delete(_ context.Context, id string) error {
	r.c.Delete(id)
	return nil
}
