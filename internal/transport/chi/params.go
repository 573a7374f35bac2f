package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/formdex/internal/domain"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
)

// SearchParams are the query parameters of a record listing.
type SearchParams struct {
	Q      *string `form:"q"`
	Limit  *int    `form:"limit"`
	Cursor *int64  `form:"cursor"`
}

func pathParam(r *http.Request, name string, dst any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dst,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
}

// tenantParam binds the {tenant} path segment.
func tenantParam(r *http.Request) (string, error) {
	var tenant string
	if err := pathParam(r, "tenant", &tenant); err != nil {
		return "", domain.NewValidation("tenant", err.Error())
	}
	if tenant == "" {
		return "", domain.NewValidation("tenant", "tenant is required")
	}
	return tenant, nil
}

// kindParam binds the {kind} path segment. Unknown kinds are not found.
func kindParam(r *http.Request) (domsub.Kind, error) {
	var raw string
	if err := pathParam(r, "kind", &raw); err != nil {
		return "", domain.NewValidation("kind", err.Error())
	}
	kind, err := domsub.ParseKind(raw)
	if err != nil {
		return "", errors.Join(domain.ErrNotFound, err)
	}
	return kind, nil
}

func idParam(r *http.Request) (string, error) {
	var id string
	if err := pathParam(r, "id", &id); err != nil {
		return "", domain.NewValidation("id", err.Error())
	}
	return id, nil
}

func searchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", query, &p.Q); err != nil {
		return p, domain.NewValidation("q", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &p.Limit); err != nil {
		return p, domain.NewValidation("limit", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "cursor", query, &p.Cursor); err != nil {
		return p, domain.NewValidation("cursor", err.Error())
	}
	if p.Cursor != nil && *p.Cursor < 0 {
		return p, domain.NewValidation("cursor", "cursor must not be negative")
	}
	return p, nil
}
