package handler

import (
	"mime"
	"net/http"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/gin-gonic/gin"
)

const pdfContentType = "application/pdf"

// writeDocument streams a rendered PDF. Archived documents are answered with their
// download link instead, unless the caller asks for the bytes with ?inline=true.
func (h *BaseHandler) writeDocument(c *gin.Context, doc *appinvoicing.RenderedDocument) {
	if doc.DownloadURL != "" && c.Query("inline") != "true" {
		h.Success(c, doc)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, pdfContentType, doc.Content)
}
