package salesforce

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// Tier is a Salesforce deployment tier. Each tier is a separate login
// provider with its own provider id and base URL.
type Tier int

const (
	TierProduction Tier = iota + 1
	TierSandbox
	TierCustom
)

// Tiers lists every supported tier.
var Tiers = []Tier{TierProduction, TierSandbox, TierCustom}

const (
	ProductionBaseURL = "https://login.salesforce.com"
	SandboxBaseURL    = "https://test.salesforce.com"

	// CustomDomainKey is both the query parameter and the session key that
	// carry the My Domain prefix for the custom tier.
	CustomDomainKey = "custom_domain"
)

// SessionState is the part of the browser session the tier resolution reads
// and writes.
type SessionState interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

var customDomainPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$`)

// ParseTier resolves a provider id such as "salesforce-test".
func ParseTier(providerID string) (Tier, error) {
	for _, t := range Tiers {
		if t.ProviderID() == providerID {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, providerID)
}

func (t Tier) ProviderID() string {
	switch t {
	case TierProduction:
		return "salesforce-production"
	case TierSandbox:
		return "salesforce-test"
	case TierCustom:
		return "salesforce-custom"
	}
	return ""
}

// Name is the human readable provider name.
func (t Tier) Name() string {
	switch t {
	case TierProduction:
		return "Salesforce Production"
	case TierSandbox:
		return "Salesforce Sandbox"
	case TierCustom:
		return "Salesforce Custom Domain"
	}
	return ""
}

func (t Tier) String() string { return t.ProviderID() }

// BaseURL returns the authorization server base URL for the tier. For the
// custom tier the My Domain prefix is taken from the query, falling back to
// the session, and the value used is written back into the session so the
// callback resolves the same host.
func (t Tier) BaseURL(query url.Values, state SessionState) (string, error) {
	switch t {
	case TierProduction:
		return ProductionBaseURL, nil
	case TierSandbox:
		return SandboxBaseURL, nil
	case TierCustom:
		domain := strings.TrimSpace(query.Get(CustomDomainKey))
		if domain == "" && state != nil {
			domain, _ = state.Get(CustomDomainKey)
		}
		if domain == "" {
			return "", apperrors.ErrMissingCustomDomain
		}
		if len(domain) > 253 || !customDomainPattern.MatchString(domain) {
			return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCustomDomain, domain)
		}
		if state != nil {
			state.Set(CustomDomainKey, domain)
		}
		return "https://" + domain + ".my.salesforce.com", nil
	}
	return "", fmt.Errorf("%w: tier %d", apperrors.ErrUnknownProvider, int(t))
}
