package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"zentropay/internal/core/apperror"
	appctx "zentropay/internal/core/context"
	"zentropay/internal/core/id"
	"zentropay/internal/domain"
	"zentropay/internal/domain/clients"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/domain/payments"
	"zentropay/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoices, including the
// client-portal views scoped to the authenticated client.
type InvoiceHandler struct {
	*BaseHandler
	service  *invoices.Service
	clients  *clients.Service
	payments *payments.Service
	company  invoices.CompanyProfile
	now      func() time.Time
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoices.Service, clientService *clients.Service, paymentService *payments.Service, company invoices.CompanyProfile) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
		clients:     clientService,
		payments:    paymentService,
		company:     company,
		now:         time.Now,
	}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv := req.ToEntity(h.GetUserID(c))
	if err := h.service.Create(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, inv)
}

// GetByID handles GET /invoices/:id.
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, inv)
}

// Update handles PUT /invoices/:id.
// Paid invoices refuse edits; the service enforces this against persisted state.
func (h *InvoiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(inv)

	if err := h.service.Update(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, inv)
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /invoices with filtering.
func (h *InvoiceHandler) List(c *gin.Context) {
	filter := h.parseListFilter(c)

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// ListMine handles GET /invoices/mine - invoices created by the caller.
func (h *InvoiceHandler) ListMine(c *gin.Context) {
	filter := h.parseListFilter(c)

	result, err := h.service.ListCreatedBy(c.Request.Context(), h.GetUserID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// MarkAsSent handles POST /invoices/:id/send.
func (h *InvoiceHandler) MarkAsSent(c *gin.Context) {
	h.transition(c, h.service.MarkAsSent)
}

// MarkAsPaid handles POST /invoices/:id/pay.
// Paying an already-paid invoice is a no-op, not an error.
func (h *InvoiceHandler) MarkAsPaid(c *gin.Context) {
	h.transition(c, h.service.MarkAsPaid)
}

// Cancel handles POST /invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *InvoiceHandler) transition(c *gin.Context, fn func(ctx context.Context, invoiceID id.ID) (*invoices.Invoice, error)) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := fn(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewStatusChangeResponse(inv))
}

// Duplicate handles POST /invoices/:id/duplicate.
// Creates a fresh draft copy with a new number.
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	dup, err := h.service.Duplicate(c.Request.Context(), invoiceID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dup)
}

// SweepOverdue handles POST /invoices/sweep-overdue.
// Transitions every pending invoice past its due date to overdue.
func (h *InvoiceHandler) SweepOverdue(c *gin.Context) {
	asOf := h.now()
	if v, ok := dto.ParseDateQuery(c.Query("asOf")); ok {
		asOf = v
	}

	count, err := h.service.MarkOverdueInvoices(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.OverdueSweepResponse{MarkedOverdue: count, AsOf: asOf})
}

// Document handles GET /invoices/:id/document.
// Returns the finalized rendering payload for the PDF service.
func (h *InvoiceHandler) Document(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	h.respondDocument(c, invoiceID)
}

func (h *InvoiceHandler) respondDocument(c *gin.Context, invoiceID id.ID) {
	ctx := c.Request.Context()

	inv, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	client, err := h.clients.GetByID(ctx, inv.ClientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	paid, err := h.payments.GetSummary(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc := invoices.BuildDocument(inv, client, h.company, paid.PaidAmount, h.now())
	h.OK(c, doc)
}

// --- Client portal ---

// PortalList handles GET /portal/invoices - invoices billed to the caller.
func (h *InvoiceHandler) PortalList(c *gin.Context) {
	ctx := c.Request.Context()

	client, err := h.portalClient(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := h.parseListFilter(c)
	result, err := h.service.ListBilledTo(ctx, client.ID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// PortalGet handles GET /portal/invoices/:id.
func (h *InvoiceHandler) PortalGet(c *gin.Context) {
	inv, ok := h.portalInvoice(c)
	if !ok {
		return
	}

	h.OK(c, inv)
}

// PortalDocument handles GET /portal/invoices/:id/document.
func (h *InvoiceHandler) PortalDocument(c *gin.Context) {
	inv, ok := h.portalInvoice(c)
	if !ok {
		return
	}

	h.respondDocument(c, inv.ID)
}

// portalClient resolves the client record for the authenticated user by email.
func (h *InvoiceHandler) portalClient(c *gin.Context) (*clients.Client, error) {
	email := appctx.GetUserEmail(c.Request.Context())
	if email == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	client, err := h.clients.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewForbidden("no client record linked to this account")
		}
		return nil, err
	}
	return client, nil
}

// portalInvoice loads an invoice and verifies it is billed to the caller.
func (h *InvoiceHandler) portalInvoice(c *gin.Context) (*invoices.Invoice, bool) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return nil, false
	}

	client, err := h.portalClient(c)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	if inv.ClientID != client.ID {
		// Hide other clients' invoices entirely.
		h.Error(c, apperror.NewNotFound("invoice", invoiceID))
		return nil, false
	}

	return inv, true
}

func (h *InvoiceHandler) parseListFilter(c *gin.Context) invoices.ListFilter {
	filter := invoices.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-invoice_date")

	if clientID := c.Query("clientId"); clientID != "" {
		if parsed, err := id.Parse(clientID); err == nil {
			filter.ClientID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		s := invoices.Status(status)
		filter.Status = &s
	}
	if recurring := c.Query("isRecurring"); recurring != "" {
		val := recurring == "true"
		filter.IsRecurring = &val
	}
	if from, ok := dto.ParseDateQuery(c.Query("dateFrom")); ok {
		filter.DateFrom = &from
	}
	if to, ok := dto.ParseDateQuery(c.Query("dateTo")); ok {
		filter.DateTo = &to
	}

	return filter
}
