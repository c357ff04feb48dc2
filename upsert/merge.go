package upsert

import (
	"github.com/jrsteele09/netop-connector/internal/utils"
	"github.com/jrsteele09/netop-connector/records"
)

// ClearSentinel is the caller value meaning "set this field to empty". The write
// API cannot otherwise tell an omitted field from one being cleared.
const ClearSentinel = " "

// mergeField applies the update precedence for a top-level string field:
//   - nil (not supplied) stays nil and is omitted from the write
//   - ClearSentinel becomes ""
//   - "" falls back to the existing value when that is non-empty
//   - anything else is sent as supplied
func mergeField(incoming *string, existing string) *string {
	if incoming == nil {
		return nil
	}
	switch {
	case *incoming == "" && existing != "":
		return utils.Ptr(existing)
	case *incoming == ClearSentinel:
		return utils.Ptr("")
	}
	return incoming
}

// mergeOptionalField is mergeField for fields the partner may return as null.
func mergeOptionalField(incoming *string, existing *string) *string {
	return mergeField(incoming, utils.Value(existing))
}

// mergeAddressField applies the address precedence, which differs from the
// top-level rule: a missing or blank value always takes the existing one, even
// when that is null.
func mergeAddressField(incoming *string, existing *string) *string {
	if incoming == nil || *incoming == "" {
		return existing
	}
	if *incoming == ClearSentinel {
		return utils.Ptr("")
	}
	return incoming
}

func mergeCoordinate(incoming *float64, existing *float64) *float64 {
	if incoming == nil {
		return existing
	}
	return incoming
}

// mergeAddress merges the caller's address over the existing one key by key.
// It is one level deep only.
func mergeAddress(incoming records.Address, existing *records.Address) records.Address {
	prior := utils.Value(existing)
	return records.Address{
		AddressLine1: mergeAddressField(incoming.AddressLine1, prior.AddressLine1),
		AddressLine2: mergeAddressField(incoming.AddressLine2, prior.AddressLine2),
		City:         mergeAddressField(incoming.City, prior.City),
		State:        mergeAddressField(incoming.State, prior.State),
		Zipcode:      mergeAddressField(incoming.Zipcode, prior.Zipcode),
		Country:      mergeAddressField(incoming.Country, prior.Country),
		Lat:          mergeCoordinate(incoming.Lat, prior.Lat),
		Lon:          mergeCoordinate(incoming.Lon, prior.Lon),
	}
}

// mergeOrganization folds an existing organization into an update body. Only
// fields whose request and record names correspond are merge aware.
func mergeOrganization(body organizationBody, existing *records.Organization) organizationBody {
	body.Address = mergeAddress(body.Address, existing.Address)
	body.Name = mergeField(body.Name, existing.Name)
	body.SourceSystem = mergeField(body.SourceSystem, existing.SourceSystem)
	return body
}

func mergeTenant(body tenantBody, existing *records.Tenant) tenantBody {
	body.Name = mergeField(body.Name, existing.Name)
	body.SourceSystem = mergeField(body.SourceSystem, existing.SourceSystem)
	body.Priority = mergeOptionalField(body.Priority, existing.Priority)
	body.LineOfBusiness = mergeOptionalField(body.LineOfBusiness, existing.LineOfBusiness)
	return body
}
