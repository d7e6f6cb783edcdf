package salesforce

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// APIVersion replaces the {version} placeholder in the profile's urls.
const APIVersion = "44.0"

// OrgDetails is the Organization record of the connected org. A nil value
// means the connected user's administrative capability is unknown.
type OrgDetails map[string]any

func (d OrgDetails) Name() string {
	s, _ := d["Name"].(string)
	return s
}

func (d OrgDetails) OrganizationType() string {
	s, _ := d["OrganizationType"].(string)
	return s
}

// OrgVerifier confirms the connected user can modify all data in the org
// and fetches the org's details.
type OrgVerifier struct {
	client *Client
}

func NewOrgVerifier(client *Client) *OrgVerifier {
	return &OrgVerifier{client: client}
}

// Verify runs the two step check. Errors wrap ErrUpstream (HTTP failure or
// timeout), ErrInsufficientPermission or ErrMissingField; callers treat all
// of them as "capability unknown".
func (v *OrgVerifier) Verify(ctx context.Context, profile map[string]any, accessToken string) (OrgDetails, error) {
	urls, ok := profile["urls"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: urls", apperrors.ErrMissingField)
	}
	rest, err := versionedURL(urls, "rest")
	if err != nil {
		return nil, err
	}

	orgInfo, err := v.client.GetJSON(ctx, "org info", rest+"connect/organization", accessToken)
	if err != nil {
		return nil, err
	}
	if !canModifyAllData(orgInfo) {
		return nil, apperrors.ErrInsufficientPermission
	}

	sobjects, err := versionedURL(urls, "sobjects")
	if err != nil {
		return nil, err
	}
	orgID, _ := profile["organization_id"].(string)
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization_id", apperrors.ErrMissingField)
	}

	details, err := v.client.GetJSON(ctx, "org details", sobjects+"Organization/"+url.PathEscape(orgID), accessToken)
	if err != nil {
		return nil, err
	}
	return OrgDetails(details), nil
}

func versionedURL(urls map[string]any, key string) (string, error) {
	s, _ := urls[key].(string)
	if s == "" {
		return "", fmt.Errorf("%w: urls.%s", apperrors.ErrMissingField, key)
	}
	return strings.ReplaceAll(s, "{version}", APIVersion), nil
}

func canModifyAllData(orgInfo map[string]any) bool {
	settings, ok := orgInfo["userSettings"].(map[string]any)
	if !ok {
		return false
	}
	allowed, _ := settings["canModifyAllData"].(bool)
	return allowed
}
