package upsert_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/netop-connector/records"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/jrsteele09/netop-connector/transport/transportfake"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://netop.test"

// fakeNetOp is a stateful stand-in for the partner API's organization and
// tenant endpoints, including its 403-for-missing lookups.
type fakeNetOp struct {
	orgs    map[string]records.Organization
	tenants map[string]records.Tenant
	nextID  int64
	calls   []transport.Request
	lock    sync.Mutex
}

func newFakeNetOp() *fakeNetOp {
	return &fakeNetOp{
		orgs:    make(map[string]records.Organization),
		tenants: make(map[string]records.Tenant),
		nextID:  100,
	}
}

type orgWrite struct {
	ParentID             any             `json:"parentId"`
	Address              records.Address `json:"address"`
	Name                 *string         `json:"name"`
	SourceSystem         *string         `json:"sourceSystem"`
	ExternalSystemID     string          `json:"externalSystemId"`
	AdditionalProperties map[string]any  `json:"additional_properties"`
	Type                 string          `json:"type"`
	Tags                 []string        `json:"tags"`
}

type tenantWrite struct {
	SourceSystem         *string        `json:"sourceSystem"`
	ExternalSystemID     string         `json:"externalSystemId"`
	Name                 *string        `json:"name"`
	OrgID                *string        `json:"orgId"`
	LineOfBusiness       *string        `json:"lineOfBusiness"`
	AdditionalProperties map[string]any `json:"additionalProperties"`
	Priority             *string        `json:"priority"`
}

func (f *fakeNetOp) Do(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, req)

	path := strings.TrimPrefix(req.URL, baseURL+"/1.0/ext/")
	kind, segment, _ := strings.Cut(path, "/")

	switch {
	case req.Method == http.MethodGet && kind == "organizations":
		org, ok := f.orgs[segment]
		if !ok {
			return transportfake.Respond(req, http.StatusForbidden, `{"message":"Forbidden"}`), nil
		}
		return jsonResponse(req, http.StatusOK, org), nil

	case req.Method == http.MethodGet && kind == "tenants":
		tenant, ok := f.tenants[segment]
		if !ok {
			return transportfake.Respond(req, http.StatusForbidden, `{"message":"Forbidden"}`), nil
		}
		return jsonResponse(req, http.StatusOK, tenant), nil

	case kind == "organizations":
		var w orgWrite
		decodeBody(req, &w)
		org, exists := f.orgs[w.ExternalSystemID]
		if (req.Method == http.MethodPost) == exists {
			return transportfake.Respond(req, http.StatusConflict, "conflict"), nil
		}
		if !exists {
			f.nextID++
			org = records.Organization{ID: f.nextID, ExternalID: w.ExternalSystemID, ParentOrg: &[]int64{1}[0], Hierarchy: "1"}
		}
		if w.Name != nil {
			org.Name = *w.Name
		}
		if w.SourceSystem != nil {
			org.SourceSystem = *w.SourceSystem
		}
		if w.Tags != nil {
			org.Tags = w.Tags
		}
		address := w.Address
		org.Address = &address
		org.AdditionalProperties = w.AdditionalProperties
		f.orgs[w.ExternalSystemID] = org
		return jsonResponse(req, http.StatusOK, map[string]any{"id": org.ID, "externalId": org.ExternalID}), nil

	case kind == "tenants":
		var w tenantWrite
		decodeBody(req, &w)
		tenant, exists := f.tenants[w.ExternalSystemID]
		if (req.Method == http.MethodPost) == exists {
			return transportfake.Respond(req, http.StatusConflict, "conflict"), nil
		}
		if !exists {
			f.nextID++
			tenant = records.Tenant{ID: f.nextID, Organization: 27, ExternalID: w.ExternalSystemID, ExternalSystemID: w.ExternalSystemID}
		}
		if w.Name != nil {
			tenant.Name = *w.Name
		}
		if w.SourceSystem != nil {
			tenant.SourceSystem = *w.SourceSystem
		}
		if w.Priority != nil {
			tenant.Priority = w.Priority
		}
		if w.LineOfBusiness != nil {
			tenant.LineOfBusiness = w.LineOfBusiness
		}
		tenant.AdditionalProperties = w.AdditionalProperties
		f.tenants[w.ExternalSystemID] = tenant
		return jsonResponse(req, http.StatusOK, map[string]any{"id": tenant.ID, "externalSystemId": tenant.ExternalSystemID}), nil
	}
	return transportfake.Respond(req, http.StatusNotFound, "no route"), nil
}

func (f *fakeNetOp) Calls() []transport.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]transport.Request(nil), f.calls...)
}

func jsonResponse(req transport.Request, status int, v any) *transport.Response {
	raw, _ := json.Marshal(v)
	return transportfake.Respond(req, status, string(raw))
}

func decodeBody(req transport.Request, v any) {
	raw, _ := json.Marshal(req.Body)
	_ = json.Unmarshal(raw, v)
}

// bodyOf returns the JSON object a request would put on the wire.
func bodyOf(t *testing.T, req transport.Request) map[string]any {
	t.Helper()
	raw, err := json.Marshal(req.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}
