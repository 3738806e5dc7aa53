package handlers

import (
	"github.com/gin-gonic/gin"

	"zentropay/internal/domain"
	"zentropay/internal/domain/clients"
	"zentropay/internal/infrastructure/http/v1/dto"
)

// ClientHandler handles HTTP requests for clients.
type ClientHandler struct {
	*BaseHandler
	service *clients.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(base *BaseHandler, service *clients.Service) *ClientHandler {
	return &ClientHandler{BaseHandler: base, service: service}
}

// Create handles POST /clients.
func (h *ClientHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	client := req.ToEntity(h.GetUserID(c))
	if err := h.service.Create(ctx, client); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, client)
}

// GetByID handles GET /clients/:id.
func (h *ClientHandler) GetByID(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	client, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, client)
}

// Update handles PUT /clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	client, err := h.service.GetByID(ctx, clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(client)

	if err := h.service.Update(ctx, client); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, client)
}

// Delete handles DELETE /clients/:id.
// Deletion is refused while the client has invoices.
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), clientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /clients.
func (h *ClientHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// GetBalance handles GET /clients/:id/balance.
// Recomputes the outstanding balance before answering.
func (h *ClientHandler) GetBalance(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}
