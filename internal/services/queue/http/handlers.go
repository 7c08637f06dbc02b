// Package http provides http transport for the moderation queue
package http

import (
	stdhttp "net/http"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/platform/net/http/bind"
	"harborlist/internal/services/queue/domain"
	svc "harborlist/internal/services/queue/service"

	"github.com/go-chi/chi/v5"
)

// Register mounts the queue endpoints
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/assign", h.assign)
	httpkit.Post(r, "/{id}/resolve", h.resolve)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /moderation/queue Queue queueList
// @Summary Moderation dashboard
// @Tags Queue
// @Produce json
// @Param status query string false "pending, in_review or resolved"
// @Param priority query string false "urgent, high, standard or low"
// @Param assignee query string false "moderator id"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} domain.Page "ok"
// @Failure 403 {object} httpkit.Envelope "not a moderator"
// @Router /moderation/queue [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q, err := bind.ParseQuery[domain.ListQuery](r)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), domain.Filter{
		Status:   domain.Status(q.Status),
		Priority: listing.Priority(q.Priority),
		Assignee: q.Assignee,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
}

// swagger:route GET /moderation/queue/{id} Queue queueGet
// @Summary One queue entry
// @Tags Queue
// @Produce json
// @Param id path string true "queue id"
// @Success 200 {object} domain.Entry "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /moderation/queue/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route POST /moderation/queue/{id}/assign Queue queueAssign
// @Summary Claim an entry and move its listing into review
// @Tags Queue
// @Produce json
// @Param id path string true "queue id"
// @Success 200 {object} domain.Entry "ok"
// @Failure 409 {object} httpkit.Envelope "claimed by another moderator or resolved"
// @Router /moderation/queue/{id}/assign [post]
func (h *handlers) assign(r *stdhttp.Request) (any, error) {
	return h.svc.Assign(r.Context(), chi.URLParam(r, "id"), httpkit.Actor(r))
}

// swagger:route POST /moderation/queue/{id}/resolve Queue queueResolve
// @Summary Close an entry whose listing no longer awaits a decision
// @Tags Queue
// @Produce json
// @Param id path string true "queue id"
// @Success 200 {object} domain.Entry "ok"
// @Failure 409 {object} httpkit.Envelope "listing still awaits a decision"
// @Router /moderation/queue/{id}/resolve [post]
func (h *handlers) resolve(r *stdhttp.Request) (any, error) {
	return h.svc.Resolve(r.Context(), chi.URLParam(r, "id"), httpkit.Actor(r))
}
