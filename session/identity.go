package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buger/jsonparser"
	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/rs/zerolog/log"
)

const (
	RoleOrganization = "Organization"
	RoleTenant       = "Tenant"
)

var roleResources = map[string]string{
	RoleOrganization: "organizations",
	RoleTenant:       "tenants",
}

// Identity is who a session acts as on the partner API.
type Identity struct {
	RoleType   string         `json:"roleType"`
	ResourceID string         `json:"resourceId"`
	Name       string         `json:"name"`
	Label      string         `json:"label"`
	Resource   map[string]any `json:"resource"`
}

type accessGrant struct {
	RoleType   string          `json:"roleType"`
	ResourceID json.RawMessage `json:"resourceId"`
}

// resourceID returns the grant's resourceId as it appears on the wire. Numbers
// keep their literal digits; strings are unquoted.
func (g accessGrant) resourceID() string {
	value, dataType, _, err := jsonparser.Get(g.ResourceID)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		id, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return id
	case jsonparser.Number:
		return string(value)
	}
	return ""
}

// TestSession checks that s can reach the partner API. It reads the access
// grant, then loads the organization or tenant the grant names. The session
// label is derived from that resource.
func (m *Manager) TestSession(ctx context.Context, s *Session) (*Identity, error) {
	baseURL, err := m.baseURL(s.Environment)
	if err != nil {
		return nil, err
	}
	requester := NewAuthorizedRequester(m, s, m.requester)

	resp, err := requester.Do(ctx, transport.Request{URL: baseURL + "/1.0/globalInfo/access", Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if err := resp.ThrowForStatus(); err != nil {
		return nil, err
	}
	grant := accessGrant{}
	if err := resp.JSON(&grant); err != nil {
		return nil, err
	}

	kind, ok := roleResources[grant.RoleType]
	if !ok {
		return nil, &apperrors.UnrecognizedRoleError{RoleType: grant.RoleType}
	}
	resourceID := grant.resourceID()
	if resourceID == "" {
		return nil, resp.UpstreamError("access grant has no resourceId")
	}

	resp, err = requester.Do(ctx, transport.Request{URL: fmt.Sprintf("%s/1.0/%s/%s", baseURL, kind, resourceID), Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if err := resp.ThrowForStatus(); err != nil {
		return nil, err
	}
	resource := map[string]any{}
	if err := resp.JSON(&resource); err != nil {
		return nil, err
	}

	name, _ := resource["name"].(string)
	identity := &Identity{
		RoleType:   grant.RoleType,
		ResourceID: resourceID,
		Name:       name,
		Label:      fmt.Sprintf("%s [%s]", name, s.Environment),
		Resource:   resource,
	}
	s.Label = identity.Label
	log.Info().Str("session", s.ID).Str("role", identity.RoleType).Str("label", identity.Label).Msg("session verified")
	return identity, nil
}
