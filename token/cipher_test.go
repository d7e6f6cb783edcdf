package token_test

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
	"github.com/jrsteele09/go-sfdc-login/token"
)

const testKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func newCipher(t *testing.T) *token.Cipher {
	t.Helper()
	c, err := token.NewCipherFromString(testKey)
	require.NoError(t, err)
	return c
}

func TestParseKey(t *testing.T) {
	raw := []byte("0123456789abcdef0123456789abcdef")

	for name, encoded := range map[string]string{
		"std padded":  base64.StdEncoding.EncodeToString(raw),
		"url padded":  base64.URLEncoding.EncodeToString(raw),
		"url raw":     base64.RawURLEncoding.EncodeToString(raw),
		"std raw":     base64.RawStdEncoding.EncodeToString(raw),
		"surrounding": "  " + base64.StdEncoding.EncodeToString(raw) + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			key, err := token.ParseKey(encoded)
			require.NoError(t, err)
			require.Equal(t, raw, key)
		})
	}

	for name, encoded := range map[string]string{
		"empty":      "",
		"short":      base64.StdEncoding.EncodeToString([]byte("too short")),
		"not b64":    "!!!not-base64!!!",
		"too long":   base64.StdEncoding.EncodeToString(append(raw, 'x')),
		"whitespace": "   ",
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := token.ParseKey(encoded)
			require.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestNewCipher_KeyLength(t *testing.T) {
	_, err := token.NewCipher([]byte("short"))
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newCipher(t)

	for _, plaintext := range []string{"", "00Dxx0000001gPL!AR8AQ", strings.Repeat("é", 500)} {
		sealed, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotContains(t, sealed, "00Dxx")

		opened, err := c.Decrypt(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	}
}

func TestCipher_NonDeterministic(t *testing.T) {
	c := newCipher(t)
	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCipher_WrongKey(t *testing.T) {
	sealed, err := newCipher(t).Encrypt("secret")
	require.NoError(t, err)

	otherKey, err := token.GenerateKey()
	require.NoError(t, err)
	other, err := token.NewCipherFromString(otherKey)
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	require.ErrorIs(t, err, apperrors.ErrDecryption)
}

func TestCipher_Malformed(t *testing.T) {
	c := newCipher(t)
	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	for name, input := range map[string]string{
		"tampered": tampered,
		"short":    "abcd",
		"garbage":  "%%%%",
		"empty":    "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(input)
			require.ErrorIs(t, err, apperrors.ErrDecryption)
		})
	}
}

func TestCipher_Concurrent(t *testing.T) {
	c := newCipher(t)
	var wg sync.WaitGroup
	results := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sealed, err := c.Encrypt("token")
			if err != nil {
				results <- err.Error()
				return
			}
			opened, err := c.Decrypt(sealed)
			if err != nil {
				results <- err.Error()
				return
			}
			results <- opened
		}()
	}
	wg.Wait()
	close(results)
	for got := range results {
		require.Equal(t, "token", got)
	}
}

func TestCipher_DeriveKey(t *testing.T) {
	c := newCipher(t)
	a, err := c.DeriveKey("session", 32)
	require.NoError(t, err)
	b, err := c.DeriveKey("session", 32)
	require.NoError(t, err)
	other, err := c.DeriveKey("other", 32)
	require.NoError(t, err)

	require.Len(t, a, 32)
	require.Equal(t, a, b)
	require.NotEqual(t, a, other)
}

func TestNormalizer(t *testing.T) {
	c := newCipher(t)
	n := token.NewNormalizer(c)
	expiry := time.Now().Add(time.Hour)

	tok := (&oauth2.Token{
		AccessToken:  "access-plain",
		RefreshToken: "refresh-plain",
		Expiry:       expiry,
	}).WithExtra(map[string]any{"instance_url": "https://acme.my.salesforce.com"})

	require.NoError(t, n.Normalize(tok))
	require.NotEqual(t, "access-plain", tok.AccessToken)
	require.NotEqual(t, "refresh-plain", tok.RefreshToken)
	require.Equal(t, "https://acme.my.salesforce.com", tok.Extra("instance_url"))

	rec := n.Record(tok, "client-1")
	require.Equal(t, "client-1", rec.AppID)
	require.Equal(t, expiry, rec.ExpiresAt)

	access, err := c.Decrypt(rec.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "access-plain", access)
	refresh, err := c.Decrypt(rec.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "refresh-plain", refresh)
}

func TestNormalizer_NoRefreshToken(t *testing.T) {
	n := token.NewNormalizer(newCipher(t))
	tok := &oauth2.Token{AccessToken: "access-plain"}
	require.NoError(t, n.Normalize(tok))
	require.Empty(t, tok.RefreshToken)
}

func TestNormalizer_NoAccessToken(t *testing.T) {
	n := token.NewNormalizer(newCipher(t))
	require.ErrorIs(t, n.Normalize(&oauth2.Token{}), apperrors.ErrNoToken)
	require.ErrorIs(t, n.Normalize(nil), apperrors.ErrNoToken)
}
