package upsert

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/internal/utils"
	"github.com/jrsteele09/netop-connector/records"
	"github.com/samber/lo"
)

// Action reports what an upsert did.
type Action string

const (
	ActionCreated Action = "create"
	ActionUpdated Action = "update"
)

// method maps an action onto the partner's write verb.
func (a Action) method() string {
	if a == ActionCreated {
		return http.MethodPost
	}
	return http.MethodPut
}

// Outcome is the canonical record after a write plus the action taken.
type Outcome[T any] struct {
	Record *T
	Action Action
}

// PropertyType classifies an organization and is part of its write URL.
type PropertyType string

const (
	PropertyOwner    PropertyType = "PropertyOwner"
	PropertyLocation PropertyType = "PropertyLocation"
)

var propertyTypes = []PropertyType{PropertyOwner, PropertyLocation}

// ParsePropertyType matches value against the known property types.
func ParsePropertyType(value string) (PropertyType, error) {
	pt := PropertyType(strings.TrimSpace(value))
	if !lo.Contains(propertyTypes, pt) {
		return "", apperrors.InvalidInputf("property type %q must be one of %v", value, propertyTypes)
	}
	return pt, nil
}

var priorities = []string{"Low", "Medium", "High"}

// ParentRef is the parentId written for an organization: the parent's
// external id, or RootParent to let NetOp assign one from the caller's
// organization authorities.
type ParentRef string

// RootParent is sent as the number -1.
const RootParent ParentRef = "-1"

func (p ParentRef) MarshalJSON() ([]byte, error) {
	if p == RootParent {
		return []byte("-1"), nil
	}
	return json.Marshal(string(p))
}

// OrganizationInput is the caller supplied field set for an organization
// upsert. Nil fields were not supplied.
type OrganizationInput struct {
	SourceSystem         *string
	ExternalSystemID     string
	PropertyType         PropertyType
	Name                 *string
	ParentID             *string
	Tags                 []string
	AdditionalProperties map[string]any
	Address              *records.Address
}

func (in OrganizationInput) Validate() error {
	if strings.TrimSpace(in.ExternalSystemID) == "" {
		return apperrors.InvalidInputf("organization externalSystemId is required")
	}
	if _, err := ParsePropertyType(string(in.PropertyType)); err != nil {
		return err
	}
	return nil
}

// TenantInput is the caller supplied field set for a tenant upsert.
type TenantInput struct {
	SourceSystem         *string
	ExternalSystemID     string
	OrgID                *string
	Name                 *string
	LineOfBusiness       *string
	Priority             *string
	AdditionalProperties map[string]any
}

func (in TenantInput) Validate() error {
	if strings.TrimSpace(in.ExternalSystemID) == "" {
		return apperrors.InvalidInputf("tenant externalSystemId is required")
	}
	if !utils.IsBlank(in.Priority) && !lo.Contains(priorities, *in.Priority) {
		return apperrors.InvalidInputf("tenant priority %q must be one of %v", *in.Priority, priorities)
	}
	return nil
}

type organizationBody struct {
	ParentID             *ParentRef      `json:"parentId,omitempty"`
	Address              records.Address `json:"address"`
	Name                 *string         `json:"name,omitempty"`
	SourceSystem         *string         `json:"sourceSystem,omitempty"`
	ExternalSystemID     string          `json:"externalSystemId"`
	AdditionalProperties map[string]any  `json:"additional_properties"`
	Type                 PropertyType    `json:"type"`
	Tags                 []string        `json:"tags,omitempty"`
}

// newOrganizationBody applies the defaults shared by create and update: the
// address is never null and additional_properties always carries property_type.
// The caller's map is not modified.
func newOrganizationBody(in OrganizationInput) organizationBody {
	additional := lo.Assign(map[string]any{}, in.AdditionalProperties)
	additional["property_type"] = string(in.PropertyType)
	return organizationBody{
		Address:              utils.Value(in.Address),
		Name:                 in.Name,
		SourceSystem:         in.SourceSystem,
		ExternalSystemID:     in.ExternalSystemID,
		AdditionalProperties: additional,
		Type:                 in.PropertyType,
		Tags:                 in.Tags,
	}
}

// createParent defaults an unset parent to RootParent.
func createParent(parentID *string) *ParentRef {
	if parentID == nil || *parentID == "" {
		return utils.Ptr(RootParent)
	}
	return utils.Ptr(ParentRef(*parentID))
}

// updateParent omits an unset parent so the existing one is kept. Unlike
// createParent it never sends RootParent: an update without a parent id
// leaves the organization where it is in the hierarchy.
func updateParent(parentID *string) *ParentRef {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return utils.Ptr(ParentRef(*parentID))
}

type tenantBody struct {
	SourceSystem         *string        `json:"sourceSystem,omitempty"`
	ExternalSystemID     string         `json:"externalSystemId"`
	Name                 *string        `json:"name,omitempty"`
	OrgID                *string        `json:"orgId,omitempty"`
	LineOfBusiness       *string        `json:"lineOfBusiness,omitempty"`
	AdditionalProperties map[string]any `json:"additionalProperties"`
	Priority             *string        `json:"priority,omitempty"`
}

func newTenantBody(in TenantInput) tenantBody {
	return tenantBody{
		SourceSystem:         in.SourceSystem,
		ExternalSystemID:     in.ExternalSystemID,
		Name:                 in.Name,
		OrgID:                in.OrgID,
		LineOfBusiness:       in.LineOfBusiness,
		AdditionalProperties: lo.Assign(map[string]any{}, in.AdditionalProperties),
		Priority:             in.Priority,
	}
}
