package accounts

import (
	"encoding/json"
	"time"
)

// Keys added to the provider's profile before it is stored.
const (
	ExtraInstanceURL         = "instance_url"
	ExtraOrganizationDetails = "organization_details"
)

// ExtraData is the provider profile as returned by the userinfo endpoint,
// enriched with the org instance URL and the org details (or nil when the
// org capability could not be confirmed).
type ExtraData map[string]any

// InstanceURL returns the stored org instance URL, or "" when absent.
func (e ExtraData) InstanceURL() string {
	s, _ := e[ExtraInstanceURL].(string)
	return s
}

// OrganizationDetails returns the stored org details. A nil result means the
// administrative capability of the connected user is unknown.
func (e ExtraData) OrganizationDetails() map[string]any {
	switch v := e[ExtraOrganizationDetails].(type) {
	case map[string]any:
		return v
	case json.RawMessage:
		var m map[string]any
		if json.Unmarshal(v, &m) == nil {
			return m
		}
	}
	return nil
}

// OrgVerified reports whether org details were attached at login.
func (e ExtraData) OrgVerified() bool {
	return e.OrganizationDetails() != nil
}

// Clone returns a shallow copy.
func (e ExtraData) Clone() ExtraData {
	if e == nil {
		return nil
	}
	out := make(ExtraData, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

type User struct {
	Email     string `json:"email,omitempty"`      // User's email address
	Username  string `json:"username,omitempty"`   // Provider username (preferred_username)
	FirstName string `json:"first_name,omitempty"` // First name of the user
	LastName  string `json:"last_name,omitempty"`  // Last name of the user
}

type Account struct {
	ID         string    `json:"id,omitempty"`          // Local identifier
	Provider   string    `json:"provider"`              // Provider id, e.g. salesforce-production
	UID        string    `json:"uid"`                   // External user id at the provider
	ExtraData  ExtraData `json:"extra_data"`            // Profile plus instance_url / organization_details
	DateJoined time.Time `json:"date_joined,omitempty"` // First login through this provider
	LastLogin  time.Time `json:"last_login,omitempty"`  // Most recent login
}

// Token is the persisted credential. AccessToken and RefreshToken always
// hold ciphertext.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	AppID        string    `json:"app_id"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// SocialLogin is a completed login: the account, its user and credential.
type SocialLogin struct {
	Account Account `json:"account"`
	User    User    `json:"user"`
	Token   Token   `json:"token"`
}
