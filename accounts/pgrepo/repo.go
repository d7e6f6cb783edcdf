package pgrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

var _ accounts.Repo = (*Repo)(nil)

// Schema creates the table used by Repo. Migrations are managed outside this
// service; Schema exists for local setups and is applied by EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS social_account (
	id             UUID PRIMARY KEY,
	provider       TEXT NOT NULL,
	uid            TEXT NOT NULL,
	extra_data     JSONB NOT NULL DEFAULT '{}'::jsonb,
	email          TEXT NOT NULL DEFAULT '',
	username       TEXT NOT NULL DEFAULT '',
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	access_token   TEXT NOT NULL,
	refresh_token  TEXT NOT NULL DEFAULT '',
	app_id         TEXT NOT NULL DEFAULT '',
	expires_at     TIMESTAMPTZ,
	date_joined    TIMESTAMPTZ NOT NULL,
	last_login     TIMESTAMPTZ NOT NULL,
	UNIQUE (provider, uid)
)`

// Repo stores logins in Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Connect opens a pool for the database URL and checks connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[pgrepo Connect] open pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrapf(err, "[pgrepo Connect] ping")
	}
	return pool, nil
}

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return apperrors.Wrapf(err, "[pgrepo EnsureSchema]")
}

func (r *Repo) Save(ctx context.Context, login *accounts.SocialLogin) error {
	extra, err := json.Marshal(login.Account.ExtraData)
	if err != nil {
		return apperrors.Wrapf(err, "[pgrepo Save] encode extra data")
	}
	if login.Account.ID == "" {
		login.Account.ID = uuid.New().String()
	}
	if login.Account.DateJoined.IsZero() {
		login.Account.DateJoined = login.Account.LastLogin
	}

	const query = `
		INSERT INTO social_account (
			id, provider, uid, extra_data, email, username, first_name, last_name,
			access_token, refresh_token, app_id, expires_at, date_joined, last_login
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (provider, uid) DO UPDATE SET
			extra_data = EXCLUDED.extra_data,
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			app_id = EXCLUDED.app_id,
			expires_at = EXCLUDED.expires_at,
			last_login = EXCLUDED.last_login
		RETURNING id, date_joined
	`
	err = r.pool.QueryRow(ctx, query,
		login.Account.ID, login.Account.Provider, login.Account.UID, extra,
		login.User.Email, login.User.Username, login.User.FirstName, login.User.LastName,
		login.Token.AccessToken, login.Token.RefreshToken, login.Token.AppID, nullTime(login.Token.ExpiresAt),
		login.Account.DateJoined, login.Account.LastLogin,
	).Scan(&login.Account.ID, &login.Account.DateJoined)
	return apperrors.Wrapf(err, "[pgrepo Save] %s/%s", login.Account.Provider, login.Account.UID)
}

func (r *Repo) Get(ctx context.Context, provider, uid string) (*accounts.SocialLogin, error) {
	const query = `
		SELECT id, provider, uid, extra_data, email, username, first_name, last_name,
			access_token, refresh_token, app_id, expires_at, date_joined, last_login
		FROM social_account
		WHERE provider = $1 AND uid = $2
	`
	var (
		login     accounts.SocialLogin
		extra     []byte
		expiresAt *time.Time
	)
	err := r.pool.QueryRow(ctx, query, provider, uid).Scan(
		&login.Account.ID, &login.Account.Provider, &login.Account.UID, &extra,
		&login.User.Email, &login.User.Username, &login.User.FirstName, &login.User.LastName,
		&login.Token.AccessToken, &login.Token.RefreshToken, &login.Token.AppID, &expiresAt,
		&login.Account.DateJoined, &login.Account.LastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[pgrepo Get] %s/%s", provider, uid)
	}
	if err := json.Unmarshal(extra, &login.Account.ExtraData); err != nil {
		return nil, apperrors.Wrapf(err, "[pgrepo Get] decode extra data")
	}
	if expiresAt != nil {
		login.Token.ExpiresAt = *expiresAt
	}
	return &login, nil
}

func (r *Repo) Delete(ctx context.Context, provider, uid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM social_account WHERE provider = $1 AND uid = $2`, provider, uid)
	if err != nil {
		return apperrors.Wrapf(err, "[pgrepo Delete] %s/%s", provider, uid)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
