package salesforce

import (
	"fmt"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// IdentityFromProfile maps a userinfo response onto an account and user.
// The whole profile becomes the account's extra data.
func IdentityFromProfile(providerID string, profile map[string]any) (*accounts.SocialLogin, error) {
	uid := stringField(profile, "user_id")
	if uid == "" {
		return nil, fmt.Errorf("%w: user_id", apperrors.ErrMissingField)
	}
	extra := make(accounts.ExtraData, len(profile)+2)
	for k, v := range profile {
		extra[k] = v
	}
	return &accounts.SocialLogin{
		Account: accounts.Account{
			Provider:  providerID,
			UID:       uid,
			ExtraData: extra,
		},
		User: accounts.User{
			Email:     stringField(profile, "email"),
			Username:  stringField(profile, "preferred_username"),
			FirstName: stringField(profile, "given_name"),
			LastName:  stringField(profile, "family_name"),
		},
	}, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
