package upsert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/records"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// The write responses differ from the lookup body; these keys carry the
// external id the canonical record is re-read by.
const (
	organizationIDKey = "externalId"
	tenantIDKey       = "externalSystemId"
)

// Reconciler creates or updates partner records keyed by external id.
//
// Each call is a strict sequence of at most three requests: lookup, write,
// re-read. A failed write is never followed by a re-read.
type Reconciler struct {
	requester transport.Requester
	fetcher   *records.Fetcher
}

// NewReconciler returns a Reconciler for the partner API at baseURL. requester
// is expected to authorise each call.
func NewReconciler(requester transport.Requester, baseURL string) *Reconciler {
	return &Reconciler{
		requester: requester,
		fetcher:   records.NewFetcher(requester, baseURL),
	}
}

// Fetcher exposes the lookup side for find operations.
func (r *Reconciler) Fetcher() *records.Fetcher {
	return r.fetcher
}

// UpsertOrganization creates the organization when its external id is unknown,
// otherwise updates it with the caller's fields merged over the existing record.
func (r *Reconciler) UpsertOrganization(ctx context.Context, in OrganizationInput) (*Outcome[records.Organization], error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, found, err := r.fetcher.FetchOrganization(ctx, in.ExternalSystemID)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertOrganization] lookup")
	}

	body := newOrganizationBody(in)
	action := ActionCreated
	if found {
		action = ActionUpdated
		body.ParentID = updateParent(in.ParentID)
		body = mergeOrganization(body, existing)
	} else {
		body.ParentID = createParent(in.ParentID)
	}

	logDecision(records.KindOrganization, in.ExternalSystemID, action)

	url := r.fetcher.URL(records.KindOrganization, string(in.PropertyType))
	id, err := r.write(ctx, action, url, body, organizationIDKey)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertOrganization] write")
	}

	record, found, err := r.fetcher.FetchOrganization(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertOrganization] re-read")
	}
	if !found {
		return nil, missingAfterWrite(r.fetcher.URL(records.KindOrganization, id))
	}
	return &Outcome[records.Organization]{Record: record, Action: action}, nil
}

// UpsertTenant is UpsertOrganization for tenants. Tenants have no nested merge
// and no property type.
func (r *Reconciler) UpsertTenant(ctx context.Context, in TenantInput) (*Outcome[records.Tenant], error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, found, err := r.fetcher.FetchTenant(ctx, in.ExternalSystemID)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertTenant] lookup")
	}

	body := newTenantBody(in)
	action := ActionCreated
	if found {
		action = ActionUpdated
		body = mergeTenant(body, existing)
	}

	logDecision(records.KindTenant, in.ExternalSystemID, action)

	url := r.fetcher.URL(records.KindTenant, "")
	id, err := r.write(ctx, action, url, body, tenantIDKey)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertTenant] write")
	}

	record, found, err := r.fetcher.FetchTenant(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[UpsertTenant] re-read")
	}
	if !found {
		return nil, missingAfterWrite(r.fetcher.URL(records.KindTenant, id))
	}
	return &Outcome[records.Tenant]{Record: record, Action: action}, nil
}

// CreateOrganization creates an organization without looking it up first and
// returns the partner's write response.
func (r *Reconciler) CreateOrganization(ctx context.Context, in OrganizationInput) (*records.Organization, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	body := newOrganizationBody(in)
	body.ParentID = createParent(in.ParentID)

	resp, err := r.requester.Do(ctx, transport.Request{
		URL:    r.fetcher.URL(records.KindOrganization, string(in.PropertyType)),
		Method: ActionCreated.method(),
		Body:   body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[CreateOrganization] write")
	}
	if err := resp.ThrowForStatus(); err != nil {
		return nil, err
	}

	var created records.Organization
	if err := resp.JSON(&created); err != nil {
		return nil, resp.UpstreamError("unreadable write response")
	}
	return &created, nil
}

// FindOrCreateOrganization returns the organization with in's external id,
// creating it when none exists. created reports which happened.
func (r *Reconciler) FindOrCreateOrganization(ctx context.Context, in OrganizationInput) (record *records.Organization, created bool, err error) {
	existing, found, err := r.fetcher.FetchOrganization(ctx, in.ExternalSystemID)
	if err != nil {
		return nil, false, errors.Wrap(err, "[FindOrCreateOrganization] lookup")
	}
	if found {
		return existing, false, nil
	}
	record, err = r.CreateOrganization(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// FindOrCreateTenant returns the tenant with in's external id, upserting it
// when none exists.
func (r *Reconciler) FindOrCreateTenant(ctx context.Context, in TenantInput) (record *records.Tenant, created bool, err error) {
	existing, found, err := r.fetcher.FetchTenant(ctx, in.ExternalSystemID)
	if err != nil {
		return nil, false, errors.Wrap(err, "[FindOrCreateTenant] lookup")
	}
	if found {
		return existing, false, nil
	}
	outcome, err := r.UpsertTenant(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return outcome.Record, outcome.Action == ActionCreated, nil
}

// write issues the create or update and returns the external id found under
// idKey in the response.
func (r *Reconciler) write(ctx context.Context, action Action, url string, body any, idKey string) (string, error) {
	resp, err := r.requester.Do(ctx, transport.Request{
		URL:    url,
		Method: action.method(),
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	if err := resp.ThrowForStatus(); err != nil {
		return "", err
	}

	var written map[string]any
	decoder := json.NewDecoder(bytes.NewReader(resp.Body))
	decoder.UseNumber()
	if err := decoder.Decode(&written); err != nil {
		return "", resp.UpstreamError("unreadable write response")
	}
	id := identifier(written[idKey])
	if id == "" {
		return "", resp.UpstreamError(fmt.Sprintf("write response has no %s", idKey))
	}
	return id, nil
}

// identifier renders a write-response id. Numeric ids keep their literal digits.
func identifier(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func missingAfterWrite(url string) error {
	return &apperrors.UpstreamError{
		Method: http.MethodGet,
		URL:    url,
		Status: http.StatusForbidden,
		Reason: "record not found after successful write",
	}
}

func logDecision(kind records.Kind, externalID string, action Action) {
	log.Info().
		Str("kind", kind.String()).
		Str("external_id", externalID).
		Str("action", string(action)).
		Msg("upserting record")
}
