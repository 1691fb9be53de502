package handler

import (
	"net/http"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuoteHandler handles quote endpoints, including conversion to an invoice
type QuoteHandler struct {
	BaseHandler
	quotes      *appinvoicing.QuoteService
	conversions *appinvoicing.ConversionService
	documents   *appinvoicing.DocumentService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(
	quotes *appinvoicing.QuoteService,
	conversions *appinvoicing.ConversionService,
	documents *appinvoicing.DocumentService,
	log *zap.Logger,
) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: newBaseHandler(log),
		quotes:      quotes,
		conversions: conversions,
		documents:   documents,
	}
}

// Create handles POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var body dto.QuoteBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToCreateRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	quote, err := h.quotes.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// Get handles GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// List handles GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var query dto.QuoteListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.quotes.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Summary handles GET /quotes/summary
func (h *QuoteHandler) Summary(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var query dto.QuoteListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.quotes.Summary(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Update handles PUT /quotes/:id
func (h *QuoteHandler) Update(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.QuoteBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToUpdateRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	quote, err := h.quotes.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// UpdateStatus handles PATCH /quotes/:id/status
func (h *QuoteHandler) UpdateStatus(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.QuoteStatusBody
	if !h.bindJSON(c, &body) {
		return
	}

	quote, err := h.quotes.UpdateStatus(c.Request.Context(), userID, id, body.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Send handles POST /quotes/:id/send
func (h *QuoteHandler) Send(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Send(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Duplicate handles POST /quotes/:id/duplicate
func (h *QuoteHandler) Duplicate(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Duplicate(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// Convert handles POST /quotes/:id/convert. An empty body uses the default payment terms.
func (h *QuoteHandler) Convert(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.ConvertQuoteBody
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &body) {
		return
	}

	result, err := h.conversions.ConvertQuote(c.Request.Context(), userID, id, body.ToRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Delete handles DELETE /quotes/:id
func (h *QuoteHandler) Delete(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	if err := h.quotes.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PDF handles GET /quotes/:id/pdf
func (h *QuoteHandler) PDF(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	doc, err := h.documents.RenderQuotePDF(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.writeDocument(c, doc)
}
