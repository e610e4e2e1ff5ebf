package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/api/responses"
	"github.com/tierforge/tierforge-backend/api/validators"
	"github.com/tierforge/tierforge-backend/internal/tiers"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
	"github.com/tierforge/tierforge-backend/pkg/logger"
)

// TierHierarchy returns the manufacturer's delegation forest, optionally
// narrowed to one company by id or name.
func TierHierarchy(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		manufacturerID, err := uuid.Parse(chi.URLParam(r, "manufacturerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manufacturer id"))
			return
		}

		companyID, err := validators.ParseQueryUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := tiers.HierarchyQuery{CompanyID: companyID}
		if name := strings.TrimSpace(r.URL.Query().Get("companyName")); name != "" {
			query.CompanyName = &name
		}
		if query.CompanyID != nil && query.CompanyName != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "companyId and companyName are mutually exclusive"))
			return
		}

		hierarchy, err := svc.GetHierarchy(r.Context(), manufacturerID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, hierarchy)
	}
}
