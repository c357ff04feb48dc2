package records

import (
	"encoding/json"
	"time"
)

// Kind is the URL segment naming a partner resource collection.
type Kind string

const (
	KindOrganization Kind = "organizations"
	KindTenant       Kind = "tenants"
)

func (k Kind) String() string {
	return string(k)
}

// Address is an organization's postal location. Every field is optional; the
// partner API returns explicit nulls for unset fields.
type Address struct {
	AddressLine1 *string  `json:"addressLine1,omitempty"`
	AddressLine2 *string  `json:"addressLine2,omitempty"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Zipcode      *string  `json:"zipcode,omitempty"`
	Country      *string  `json:"country,omitempty"` // ISO 3166 alpha-2
	Lat          *float64 `json:"lat,omitempty"`     // -90 to 90
	Lon          *float64 `json:"lon,omitempty"`     // -180 to 180
}

// AddressKeys lists the address fields in wire order.
var AddressKeys = []string{"addressLine1", "addressLine2", "city", "state", "zipcode", "country", "lat", "lon"}

// Organization is a NetOp organization as returned by GET /1.0/ext/organizations/{externalId}.
//
// A decoded Organization keeps the partner's body in Raw and encodes back to
// it, so fields the typed view does not name still reach callers.
type Organization struct {
	ID                   int64          `json:"id"`
	Name                 string         `json:"name"`
	ParentOrg            *int64         `json:"parentOrg"`
	Settings             map[string]any `json:"settings"`
	Address              *Address       `json:"address"`
	SourceSystem         string         `json:"source_system"`
	AdditionalProperties map[string]any `json:"additional_properties"`
	Tags                 []string       `json:"tags"`
	Hierarchy            string         `json:"hierarchy"`
	Tenants              []any          `json:"tenants"`
	ExternalID           string         `json:"externalId"`

	Raw json.RawMessage `json:"-"`
}

// Tenant is a NetOp tenant as returned by GET /1.0/ext/tenants/{externalId}.
// Like Organization it keeps and re-encodes the partner's body.
type Tenant struct {
	ID                   int64          `json:"id"`
	Organization         int64          `json:"organization"`
	Name                 string         `json:"name"`
	ExternalID           string         `json:"externalId"`
	LineOfBusiness       *string        `json:"lineOfBusiness"`
	Priority             *string        `json:"priority"`
	ExternalSystemID     string         `json:"externalSystemId"`
	SourceSystem         string         `json:"sourceSystem"`
	AdditionalProperties map[string]any `json:"additionalProperties"`
	CreatedAt            *time.Time     `json:"createdAt"`

	Raw json.RawMessage `json:"-"`
}
