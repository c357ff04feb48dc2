package records_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/internal/utils"
	"github.com/jrsteele09/netop-connector/records"
	"github.com/jrsteele09/netop-connector/transport/transportfake"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://netop.test"

const orgBody = `{
	"id": 2,
	"name": "Example Organization",
	"parentOrg": 1,
	"settings": null,
	"address": {"addressLine1": null, "city": "Austin", "lat": 30.26, "lon": null},
	"source_system": "CRM",
	"additional_properties": {"property_type": "PropertyLocation"},
	"tags": ["a", "b"],
	"hierarchy": "1,2",
	"tenants": [],
	"externalId": "org-1"
}`

const tenantBody = `{
	"id": 7,
	"organization": 27,
	"name": "Example Tenant",
	"externalId": "tenant-1",
	"lineOfBusiness": null,
	"priority": "Low",
	"externalSystemId": "tenant-1",
	"sourceSystem": "CRM",
	"additionalProperties": null,
	"createdAt": "2021-08-03T15:58:45.361Z"
}`

func TestFetcher_StatusClassification(t *testing.T) {
	kinds := []struct {
		name  string
		kind  records.Kind
		fetch func(f *records.Fetcher, id string) (bool, error)
	}{
		{"organization", records.KindOrganization, func(f *records.Fetcher, id string) (bool, error) {
			_, found, err := f.FetchOrganization(context.Background(), id)
			return found, err
		}},
		{"tenant", records.KindTenant, func(f *records.Fetcher, id string) (bool, error) {
			_, found, err := f.FetchTenant(context.Background(), id)
			return found, err
		}},
	}

	for _, k := range kinds {
		t.Run(k.name+" 403 is not found", func(t *testing.T) {
			fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/"+k.kind.String()+"/X", http.StatusForbidden, `{"message":"Forbidden"}`)
			found, err := k.fetch(records.NewFetcher(fake, baseURL), "X")
			require.NoError(t, err)
			require.False(t, found)
		})

		for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusCreated, http.StatusBadRequest} {
			t.Run(k.name+" "+http.StatusText(status)+" is upstream error", func(t *testing.T) {
				fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/"+k.kind.String()+"/X", status, "nope")
				found, err := k.fetch(records.NewFetcher(fake, baseURL), "X")
				require.False(t, found)

				var upstream *apperrors.UpstreamError
				require.ErrorAs(t, err, &upstream)
				require.Equal(t, status, upstream.Status)
				require.Equal(t, "nope", upstream.Body)
			})
		}
	}
}

func TestFetcher_FetchOrganization(t *testing.T) {
	fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/organizations/org-1", http.StatusOK, orgBody)

	org, found, err := records.NewFetcher(fake, baseURL+"/").FetchOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2), org.ID)
	require.Equal(t, "Example Organization", org.Name)
	require.Equal(t, int64(1), *org.ParentOrg)
	require.Equal(t, "Austin", *org.Address.City)
	require.Nil(t, org.Address.AddressLine1)
	require.Equal(t, 30.26, *org.Address.Lat)
	require.Equal(t, "CRM", org.SourceSystem)
	require.Equal(t, []string{"a", "b"}, org.Tags)
	require.Equal(t, "org-1", org.ExternalID)
}

func TestFetcher_FetchTenant(t *testing.T) {
	fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/tenants/tenant-1", http.StatusOK, tenantBody)

	tenant, found, err := records.NewFetcher(fake, baseURL).FetchTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(27), tenant.Organization)
	require.Nil(t, tenant.LineOfBusiness)
	require.Equal(t, "Low", *tenant.Priority)
	require.NotNil(t, tenant.CreatedAt)
}

func TestFetcher_OrganizationWithUnexpectedValues(t *testing.T) {
	const body = `{
		"id": "2",
		"name": "Example Organization",
		"parentOrg": null,
		"address": {"city": "Austin", "lat": "30.26"},
		"tags": ["a", 3, null],
		"externalId": "org-1",
		"region": "emea"
	}`
	fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/organizations/org-1", http.StatusOK, body)

	org, found, err := records.NewFetcher(fake, baseURL).FetchOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2), org.ID)
	require.Equal(t, "Example Organization", org.Name)
	require.Nil(t, org.ParentOrg)
	require.Equal(t, "Austin", *org.Address.City)
	require.Nil(t, org.Address.Lat)
	require.Equal(t, []string{"a"}, org.Tags)
	require.JSONEq(t, body, string(org.Raw), "the partner body is kept whole")
}

func TestFetcher_TenantWithUnexpectedValues(t *testing.T) {
	tests := []struct {
		name      string
		createdAt string
		want      *time.Time
	}{
		{name: "space separated", createdAt: `"2021-08-03 15:58:45"`, want: utils.Ptr(time.Date(2021, 8, 3, 15, 58, 45, 0, time.UTC))},
		{name: "date only", createdAt: `"2021-08-03"`, want: utils.Ptr(time.Date(2021, 8, 3, 0, 0, 0, 0, time.UTC))},
		{name: "unparseable", createdAt: `"last tuesday"`},
		{name: "epoch number", createdAt: `1627999125`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"id": 2, "organization": "27", "name": "Example Tenant", "priority": 3, "externalSystemId": "tenant-1", "createdAt": ` + tt.createdAt + `, "region": "emea"}`
			fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/tenants/tenant-1", http.StatusOK, body)

			tenant, found, err := records.NewFetcher(fake, baseURL).FetchTenant(context.Background(), "tenant-1")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, int64(27), tenant.Organization)
			require.Equal(t, "Example Tenant", tenant.Name)
			require.Nil(t, tenant.Priority)
			if tt.want == nil {
				require.Nil(t, tenant.CreatedAt)
			} else {
				require.True(t, tt.want.Equal(*tenant.CreatedAt), tenant.CreatedAt)
			}
			require.JSONEq(t, body, string(tenant.Raw))
		})
	}
}

func TestFetcher_UnreadableBodyIsUpstreamError(t *testing.T) {
	for _, body := range []string{"<html>", "[]", "null", `"ok"`} {
		t.Run(body, func(t *testing.T) {
			fake := transportfake.NewFakeRequester().Reply(http.MethodGet, baseURL+"/1.0/ext/tenants/t", http.StatusOK, body)

			_, found, err := records.NewFetcher(fake, baseURL).FetchTenant(context.Background(), "t")
			require.False(t, found)
			require.ErrorIs(t, err, apperrors.ErrUpstream)
		})
	}
}

func TestFetcher_BlankIDIsRejectedWithoutRequest(t *testing.T) {
	fake := transportfake.NewFakeRequester()

	_, _, err := records.NewFetcher(fake, baseURL).FetchOrganization(context.Background(), " ")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	require.Empty(t, fake.Calls())
}

func TestFetcher_Find(t *testing.T) {
	fake := transportfake.NewFakeRequester().
		Reply(http.MethodGet, baseURL+"/1.0/ext/organizations/org-1", http.StatusOK, orgBody).
		Reply(http.MethodGet, baseURL+"/1.0/ext/tenants/missing", http.StatusForbidden, "")
	f := records.NewFetcher(fake, baseURL)

	orgs, err := f.FindOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, orgs, 1)

	tenants, err := f.FindTenant(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, tenants)
	require.Empty(t, tenants)
}
