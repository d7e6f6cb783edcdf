package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

const keyPrefix = "sfdc-login:session:"

// Repo keeps sessions in Redis so a callback can land on any instance.
type Repo struct {
	c *rdb.Client
}

func New(c *rdb.Client) *Repo {
	return &Repo{c: c}
}

// Connect parses a redis:// URL and checks connectivity.
func Connect(ctx context.Context, url string) (*rdb.Client, error) {
	opts, err := rdb.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[redisrepo Connect] parse url")
	}
	c := rdb.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, apperrors.Wrapf(err, "[redisrepo Connect] ping")
	}
	return c, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*sessions.Session, error) {
	b, err := r.c.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[redisrepo Get] %s", id)
	}
	var s sessions.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, apperrors.Wrapf(err, "[redisrepo Get] decode %s", id)
	}
	if s.Expired(time.Now()) {
		return nil, apperrors.ErrSessionNotFound
	}
	return &s, nil
}

func (r *Repo) Save(ctx context.Context, s *sessions.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrapf(err, "[redisrepo Save] encode %s", s.ID)
	}
	return apperrors.Wrapf(r.c.Set(ctx, keyPrefix+s.ID, b, ttl).Err(), "[redisrepo Save] %s", s.ID)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return apperrors.Wrapf(r.c.Del(ctx, keyPrefix+id).Err(), "[redisrepo Delete] %s", id)
}
