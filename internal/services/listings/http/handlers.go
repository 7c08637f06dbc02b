// Package http provides http transport for listings
package http

import (
	stdhttp "net/http"

	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/services/listings/domain"
	svc "harborlist/internal/services/listings/service"

	"github.com/go-chi/chi/v5"
)

// Register mounts the listing endpoints
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON(r, "/", h.create)
	httpkit.Get(r, "/{idOrSlug}", h.get)
	httpkit.PatchJSON(r, "/{id}", h.update)
	httpkit.PostJSON(r, "/{id}/moderate", h.moderate)
	httpkit.Post(r, "/{id}/sold", h.sold)
}

type handlers struct{ svc svc.Service }

// actor builds the caller from the auth context; empty when anonymous
func actor(r *stdhttp.Request) domain.Actor {
	return domain.Actor{ID: httpkit.Actor(r), Roles: httpkit.Roles(r)}
}

// swagger:route POST /listings Listings listingCreate
// @Summary Create a listing; it waits for review before going live
// @Tags Listings
// @Accept json
// @Produce json
// @Param body body domain.CreateInput true "listing"
// @Success 201 {object} domain.CreateResult "created"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 403 {object} httpkit.Envelope "not a seller or quota reached"
// @Router /listings [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	out, err := h.svc.Create(r.Context(), actor(r), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// swagger:route GET /listings/{idOrSlug} Listings listingGet
// @Summary Read a listing by id, slug or retired slug
// @Tags Listings
// @Produce json
// @Param idOrSlug path string true "listing id or slug"
// @Success 200 {object} domain.View "ok"
// @Failure 404 {object} httpkit.Envelope "not found or not public"
// @Router /listings/{idOrSlug} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), actor(r), chi.URLParam(r, "idOrSlug"))
}

// swagger:route PATCH /listings/{id} Listings listingUpdate
// @Summary Edit a listing; edits to live listings wait for review
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path string true "listing id"
// @Param body body domain.UpdateInput true "changed fields only"
// @Success 200 {object} domain.UpdateResult "ok"
// @Failure 403 {object} httpkit.Envelope "not the owner"
// @Failure 409 {object} httpkit.Envelope "invalid state or concurrent change"
// @Router /listings/{id} [patch]
func (h *handlers) update(r *stdhttp.Request, in domain.UpdateInput) (any, error) {
	return h.svc.Update(r.Context(), actor(r), chi.URLParam(r, "id"), in)
}

// swagger:route POST /listings/{id}/moderate Listings listingModerate
// @Summary Approve, reject or request changes
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path string true "listing id"
// @Param body body domain.ModerateInput true "decision"
// @Success 200 {object} domain.StatusResult "ok"
// @Failure 403 {object} httpkit.Envelope "not a reviewer"
// @Failure 409 {object} httpkit.Envelope "invalid state or concurrent change"
// @Router /listings/{id}/moderate [post]
func (h *handlers) moderate(r *stdhttp.Request, in domain.ModerateInput) (any, error) {
	return h.svc.Moderate(r.Context(), actor(r), chi.URLParam(r, "id"), in)
}

// swagger:route POST /listings/{id}/sold Listings listingSold
// @Summary Mark an active listing sold
// @Tags Listings
// @Produce json
// @Param id path string true "listing id"
// @Success 200 {object} domain.StatusResult "ok"
// @Failure 409 {object} httpkit.Envelope "listing is not active"
// @Router /listings/{id}/sold [post]
func (h *handlers) sold(r *stdhttp.Request) (any, error) {
	return h.svc.MarkSold(r.Context(), actor(r), chi.URLParam(r, "id"))
}
