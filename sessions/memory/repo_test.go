package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/sessions"
	"github.com/jrsteele09/go-sfdc-login/sessions/memory"
)

func TestRepo_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(time.Hour)

	s := sessions.New(time.Hour)
	s.Set(sessions.KeyCustomDomain, "acme")
	s.LoginState = &sessions.LoginState{Verifier: "v-1", Provider: "salesforce-custom"}
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "v-1", got.Verifier())
	domain, ok := got.Get(sessions.KeyCustomDomain)
	require.True(t, ok)
	require.Equal(t, "acme", domain)

	// stored copy is isolated from later mutation
	got.Set(sessions.KeyCustomDomain, "other")
	got.LoginState.Verifier = "v-2"
	again, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "v-1", again.Verifier())
	domain, _ = again.Get(sessions.KeyCustomDomain)
	require.Equal(t, "acme", domain)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestRepo_Expired(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(time.Hour)

	s := sessions.New(time.Hour)
	s.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, repo.Save(ctx, s))

	_, err := repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionContext(t *testing.T) {
	require.Nil(t, sessions.FromContext(context.Background()))
	require.Equal(t, "", sessions.FromContext(context.Background()).Verifier())

	s := sessions.New(time.Minute)
	ctx := sessions.WithSession(context.Background(), s)
	require.Same(t, s, sessions.FromContext(ctx))
}
