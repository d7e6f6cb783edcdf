package repofake

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-sfdc-login/accounts"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	logins map[string]*accounts.SocialLogin // provider + "/" + uid to login
	lock   sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		logins: make(map[string]*accounts.SocialLogin),
	}
}

func key(provider, uid string) string {
	return provider + "/" + uid
}

func (r *FakeAccountRepo) Save(_ context.Context, login *accounts.SocialLogin) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := key(login.Account.Provider, login.Account.UID)
	if existing, ok := r.logins[k]; ok {
		login.Account.ID = existing.Account.ID
		login.Account.DateJoined = existing.Account.DateJoined
	}
	if login.Account.ID == "" {
		login.Account.ID = uuid.New().String()
	}
	r.logins[k] = copyLogin(login)
	return nil
}

func (r *FakeAccountRepo) Get(_ context.Context, provider, uid string) (*accounts.SocialLogin, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	login, ok := r.logins[key(provider, uid)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyLogin(login), nil
}

func (r *FakeAccountRepo) Delete(_ context.Context, provider, uid string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := key(provider, uid)
	if _, ok := r.logins[k]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.logins, k)
	return nil
}

// Len returns the number of stored logins.
func (r *FakeAccountRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.logins)
}

func copyLogin(l *accounts.SocialLogin) *accounts.SocialLogin {
	c := *l
	c.Account.ExtraData = l.Account.ExtraData.Clone()
	return &c
}
