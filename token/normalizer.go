package token

import (
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-sfdc-login/accounts"
	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// Normalizer turns a token endpoint response into the stored credential
// form. It is the only place plaintext bearer credentials are encrypted.
type Normalizer struct {
	cipher *Cipher
}

func NewNormalizer(cipher *Cipher) *Normalizer {
	return &Normalizer{cipher: cipher}
}

// Normalize replaces the access token, and the refresh token when present,
// with ciphertext. Extras on tok are left untouched.
func (n *Normalizer) Normalize(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return apperrors.ErrNoToken
	}
	access, err := n.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return apperrors.Wrapf(err, "[Normalizer Normalize] access token")
	}
	refresh := ""
	if tok.RefreshToken != "" {
		if refresh, err = n.cipher.Encrypt(tok.RefreshToken); err != nil {
			return apperrors.Wrapf(err, "[Normalizer Normalize] refresh token")
		}
	}
	tok.AccessToken = access
	tok.RefreshToken = refresh
	return nil
}

// Record builds the persisted credential from a normalized token.
func (n *Normalizer) Record(tok *oauth2.Token, appID string) accounts.Token {
	return accounts.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		AppID:        appID,
		ExpiresAt:    tok.Expiry,
	}
}
