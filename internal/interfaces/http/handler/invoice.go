package handler

import (
	"net/http"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InvoiceHandler handles invoice and payment endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices  *appinvoicing.InvoiceService
	documents *appinvoicing.DocumentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appinvoicing.InvoiceService, documents *appinvoicing.DocumentService, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: newBaseHandler(log),
		invoices:    invoices,
		documents:   documents,
	}
}

// RepairResult reports the outcome of a balance repair
type RepairResult struct {
	Invoice  *appinvoicing.InvoiceResponse `json:"invoice"`
	Repaired bool                          `json:"repaired"`
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var body dto.InvoiceBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToCreateRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := h.invoices.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var query dto.InvoiceListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.invoices.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Summary handles GET /invoices/summary
func (h *InvoiceHandler) Summary(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var query dto.InvoiceListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.invoices.Summary(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.InvoiceBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToUpdateRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := h.invoices.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.InvoiceStatusBody
	if !h.bindJSON(c, &body) {
		return
	}

	invoice, err := h.invoices.UpdateStatus(c.Request.Context(), userID, id, body.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Send handles POST /invoices/:id/send
func (h *InvoiceHandler) Send(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Send(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// MarkViewed handles POST /invoices/:id/viewed
func (h *InvoiceHandler) MarkViewed(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.MarkViewed(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete handles DELETE /invoices/:id. Without ?permanent=true the invoice is voided.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var query dto.DeleteInvoiceQuery
	if !h.bindQuery(c, &query) {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), userID, id, query.Permanent); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPayments handles GET /invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	payments, err := h.invoices.ListPayments(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if payments == nil {
		payments = []appinvoicing.PaymentResponse{}
	}
	h.Success(c, payments)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.PaymentBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.invoices.RecordPayment(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// DeletePayment handles DELETE /invoices/:id/payments/:paymentId
func (h *InvoiceHandler) DeletePayment(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathID(c, "paymentId")
	if !ok {
		return
	}

	result, err := h.invoices.DeletePayment(c.Request.Context(), userID, id, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RepairBalance handles POST /invoices/:id/repair-balance
func (h *InvoiceHandler) RepairBalance(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	invoice, repaired, err := h.invoices.RepairBalance(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RepairResult{Invoice: invoice, Repaired: repaired})
}

// PDF handles GET /invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	doc, err := h.documents.RenderInvoicePDF(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.writeDocument(c, doc)
}
