package joinrequest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinovia/clinic-api/internal/authz"
	"github.com/clinovia/clinic-api/internal/handler"
	"github.com/clinovia/clinic-api/internal/middleware"
	"github.com/clinovia/clinic-api/internal/model"
	joinrequestService "github.com/clinovia/clinic-api/internal/service/joinrequest"
)

type Handler struct {
	service joinrequestService.Servicer
}

func NewHandler(service joinrequestService.Servicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reqs := r.Group("/join-requests")
	{
		reqs.POST("", h.CreateJoinRequest)
		reqs.POST("/:id/approve", h.Approve)
		reqs.POST("/:id/reject", h.Reject)
	}
	r.GET("/organizations/:id/join-requests", h.ListPending)
}

func (h *Handler) CreateJoinRequest(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	var req struct {
		OrganizationID uuid.UUID  `json:"organization_id" binding:"required"`
		Role           model.Role `json:"role" binding:"required,member_role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	jr, err := h.service.CreateJoinRequest(c.Request.Context(), req.OrganizationID, req.Role, actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(jr))
}

func (h *Handler) ListPending(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	reqs, err := h.service.ListPending(c.Request.Context(), orgID, actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reqs))
}

func (h *Handler) Approve(c *gin.Context) {
	h.resolve(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, h.service.Reject)
}

func (h *Handler) resolve(c *gin.Context, fn func(ctx context.Context, requestID uuid.UUID, actor authz.Actor) (*model.JoinRequest, error)) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request ID"))
		return
	}

	jr, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(jr))
}
