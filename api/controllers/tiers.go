package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tierforge/tierforge-backend/api/middleware"
	"github.com/tierforge/tierforge-backend/api/responses"
	"github.com/tierforge/tierforge-backend/api/validators"
	"github.com/tierforge/tierforge-backend/internal/tiers"
	"github.com/tierforge/tierforge-backend/pkg/auth"
	"github.com/tierforge/tierforge-backend/pkg/enums"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
	"github.com/tierforge/tierforge-backend/pkg/logger"
)

type trackRequest struct {
	Discount   *decimal.Decimal `json:"discount,omitempty"`
	Delegated  *decimal.Decimal `json:"delegated,omitempty"`
	Commission *decimal.Decimal `json:"commission,omitempty"`
}

func (t trackRequest) toInput() tiers.TrackInput {
	return tiers.TrackInput{
		Discount:   t.Discount,
		Delegated:  t.Delegated,
		Commission: t.Commission,
	}
}

type createNodeRequest struct {
	ParentID      uuid.UUID    `json:"parent_id" validate:"required"`
	DisplayName   string       `json:"display_name" validate:"required,min=1,max=120"`
	Role          string       `json:"role" validate:"required"`
	CompanyID     *uuid.UUID   `json:"company_id,omitempty"`
	CompanyName   *string      `json:"company_name,omitempty" validate:"omitempty,min=1"`
	Own           trackRequest `json:"own"`
	Partner       trackRequest `json:"partner"`
	Scope         string       `json:"scope,omitempty"`
	CategoryIDs   []string     `json:"category_ids,omitempty"`
	ProductIDs    []uuid.UUID  `json:"product_ids,omitempty"`
	InitialUserID *uuid.UUID   `json:"initial_user_id,omitempty"`
}

type updateNodeRequest struct {
	DisplayName *string      `json:"display_name,omitempty" validate:"omitempty,min=1,max=120"`
	Role        *string      `json:"role,omitempty"`
	CompanyName *string      `json:"company_name,omitempty" validate:"omitempty,min=1"`
	Own         trackRequest `json:"own"`
	Partner     trackRequest `json:"partner"`
	Scope       *string      `json:"scope,omitempty"`
	CategoryIDs *[]string    `json:"category_ids,omitempty"`
	ProductIDs  *[]uuid.UUID `json:"product_ids,omitempty"`
}

type bindUsersRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required,min=1"`
}

func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return auth.Actor{}, false
	}
	return actor, true
}

func sanitizeOptional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	return &clean
}

func parseNodeID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid node id")
	}
	return id, nil
}

// TierCreateNode attaches a child node under an existing parent.
func TierCreateNode(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		manufacturerID, err := uuid.Parse(chi.URLParam(r, "manufacturerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manufacturer id"))
			return
		}

		var payload createNodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseTierRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		scope := enums.TierScopeAll
		if payload.Scope != "" {
			scope, err = enums.ParseTierScope(payload.Scope)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope"))
				return
			}
		}

		input := tiers.CreateNodeInput{
			ManufacturerID: manufacturerID,
			ParentID:       payload.ParentID,
			DisplayName:    validators.SanitizeString(payload.DisplayName, 120),
			Role:           role,
			CompanyID:      payload.CompanyID,
			CompanyName:    sanitizeOptional(payload.CompanyName, 120),
			Own:            payload.Own.toInput(),
			Partner:        payload.Partner.toInput(),
			Scope:          scope,
			CategoryIDs:    payload.CategoryIDs,
			ProductIDs:     payload.ProductIDs,
			InitialUserID:  payload.InitialUserID,
		}

		node, err := svc.CreateNode(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, node)
	}
}

// TierUpdateNode adjusts the mutable fields of a node.
func TierUpdateNode(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		nodeID, err := parseNodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateNodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := tiers.UpdateNodeInput{
			DisplayName: sanitizeOptional(payload.DisplayName, 120),
			CompanyName: sanitizeOptional(payload.CompanyName, 120),
			Own:         payload.Own.toInput(),
			Partner:     payload.Partner.toInput(),
			CategoryIDs: payload.CategoryIDs,
			ProductIDs:  payload.ProductIDs,
		}
		if payload.Role != nil {
			role, err := enums.ParseTierRole(*payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}
		if payload.Scope != nil {
			scope, err := enums.ParseTierScope(*payload.Scope)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope"))
				return
			}
			input.Scope = &scope
		}

		node, err := svc.UpdateNode(r.Context(), actor, nodeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, node)
	}
}

// TierBindUsers merges user bindings into a node.
func TierBindUsers(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		nodeID, err := parseNodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bindUsersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		node, err := svc.BindUsers(r.Context(), actor, nodeID, payload.UserIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, node)
	}
}

// TierDeleteSubtree removes a node and everything below it.
func TierDeleteSubtree(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		nodeID, err := parseNodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.DeleteSubtree(r.Context(), actor, nodeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"removed_count": removed})
	}
}
