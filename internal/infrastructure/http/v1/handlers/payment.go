package handlers

import (
	"github.com/gin-gonic/gin"

	"zentropay/internal/core/id"
	"zentropay/internal/domain"
	"zentropay/internal/domain/payments"
	"zentropay/internal/infrastructure/http/v1/dto"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	*BaseHandler
	service *payments.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payments.Service) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// Record handles POST /payments.
// The invoice status is not changed; POST /invoices/:id/pay does that.
func (h *PaymentHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment := req.ToEntity(h.GetUserID(c))
	if err := h.service.Record(ctx, payment); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, payment)
}

// GetByID handles GET /payments/:id.
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.service.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, payment)
}

// Delete handles DELETE /payments/:id.
// Removing a payment does not revert the invoice status.
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /payments with filtering.
func (h *PaymentHandler) List(c *gin.Context) {
	filter := payments.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-payment_date")

	if invoiceID := c.Query("invoiceId"); invoiceID != "" {
		if parsed, err := id.Parse(invoiceID); err == nil {
			filter.InvoiceID = &parsed
		}
	}
	if clientID := c.Query("clientId"); clientID != "" {
		if parsed, err := id.Parse(clientID); err == nil {
			filter.ClientID = &parsed
		}
	}
	if method := c.Query("method"); method != "" {
		m := payments.Method(method)
		filter.Method = &m
	}
	if status := c.Query("status"); status != "" {
		s := payments.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// ListByInvoice handles GET /invoices/:id/payments.
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, items)
}

// Summary handles GET /invoices/:id/payments/summary.
func (h *PaymentHandler) Summary(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}
