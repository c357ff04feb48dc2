package records

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const apiPrefix = "/1.0/ext/"

// Fetcher looks partner records up by external ID.
//
// The NetOp API answers a lookup for an external ID it does not know with
// 403 Forbidden, not 404. Fetcher is the only place that knows this: 403 is
// reported as "not found", 200 as the record, and every other status as an
// UpstreamError. Callers must never treat a failed lookup as a missing record.
type Fetcher struct {
	requester transport.Requester
	baseURL   string
}

func NewFetcher(requester transport.Requester, baseURL string) *Fetcher {
	return &Fetcher{
		requester: requester,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// URL returns the partner URL for a resource kind and trailing segment.
// The segment is interpolated as given.
func (f *Fetcher) URL(kind Kind, segment string) string {
	return f.baseURL + apiPrefix + string(kind) + "/" + segment
}

// FetchOrganization returns the organization with externalID. found is false
// when the partner reports that no such organization exists.
func (f *Fetcher) FetchOrganization(ctx context.Context, externalID string) (*Organization, bool, error) {
	return fetch[Organization](ctx, f, KindOrganization, externalID)
}

// FetchTenant returns the tenant with externalID. found is false when the
// partner reports that no such tenant exists.
func (f *Fetcher) FetchTenant(ctx context.Context, externalID string) (*Tenant, bool, error) {
	return fetch[Tenant](ctx, f, KindTenant, externalID)
}

// FindOrganization returns zero or one organizations matching externalID.
func (f *Fetcher) FindOrganization(ctx context.Context, externalID string) ([]Organization, error) {
	return find[Organization](ctx, f, KindOrganization, externalID)
}

// FindTenant returns zero or one tenants matching externalID.
func (f *Fetcher) FindTenant(ctx context.Context, externalID string) ([]Tenant, error) {
	return find[Tenant](ctx, f, KindTenant, externalID)
}

func find[T any](ctx context.Context, f *Fetcher, kind Kind, externalID string) ([]T, error) {
	record, found, err := fetch[T](ctx, f, kind, externalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return []T{}, nil
	}
	return []T{*record}, nil
}

func fetch[T any](ctx context.Context, f *Fetcher, kind Kind, externalID string) (*T, bool, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, false, apperrors.InvalidInputf("%s lookup requires an external id", kind)
	}

	resp, err := f.requester.Do(ctx, transport.Request{
		URL:    f.URL(kind, externalID),
		Method: http.MethodGet,
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "[Fetcher] lookup %s %q", kind, externalID)
	}

	switch resp.Status {
	case http.StatusForbidden:
		log.Debug().Str("kind", kind.String()).Str("external_id", externalID).Msg("record not found")
		return nil, false, nil
	case http.StatusOK:
		var record T
		if err := resp.JSON(&record); err != nil {
			return nil, false, resp.UpstreamError("unreadable record body")
		}
		return &record, true, nil
	default:
		return nil, false, resp.UpstreamError("unexpected lookup status")
	}
}
