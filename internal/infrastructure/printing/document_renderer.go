package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// DocumentOptions controls how documents look
type DocumentOptions struct {
	// Issuer is printed above the heading when set
	Issuer         string
	CurrencySymbol string
	DateLayout     string
	Locale         language.Tag
	PaperSize      PaperSize
	Logger         *zap.Logger
}

// DocumentRenderer renders quotes and invoices to PDF
type DocumentRenderer struct {
	pdf       PDFRenderer
	invoice   *template.Template
	quote     *template.Template
	paperSize PaperSize
	issuer    string
	logger    *zap.Logger
}

// documentView is the data every template receives
type documentView struct {
	Title       string
	Heading     string
	Issuer      string
	Number      string
	Status      string
	ClientLabel string
	Client      invoicing.ClientInfo
	Items       []invoicing.LineItem
	Totals      appinvoicing.TotalsResponse
	Notes       string
	Terms       string

	Invoice  *appinvoicing.InvoiceResponse
	Payments []appinvoicing.PaymentResponse
	Quote    *appinvoicing.QuoteResponse
}

// NewDocumentRenderer parses the document templates and binds them to pdf
func NewDocumentRenderer(pdf PDFRenderer, opts DocumentOptions) (*DocumentRenderer, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "Jan 2, 2006"
	}
	if opts.Locale == language.Und {
		opts.Locale = language.AmericanEnglish
	}
	if opts.PaperSize == "" {
		opts.PaperSize = PaperSizeA4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	funcs := newFormatter(opts.Locale, opts.CurrencySymbol, opts.DateLayout).funcMap()
	invoiceTmpl, err := parseDocumentTemplate("invoice.html", funcs)
	if err != nil {
		return nil, err
	}
	quoteTmpl, err := parseDocumentTemplate("quote.html", funcs)
	if err != nil {
		return nil, err
	}

	return &DocumentRenderer{
		pdf:       pdf,
		invoice:   invoiceTmpl,
		quote:     quoteTmpl,
		paperSize: opts.PaperSize,
		issuer:    opts.Issuer,
		logger:    opts.Logger,
	}, nil
}

func parseDocumentTemplate(name string, funcs template.FuncMap) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse "+name, err)
	}
	return tmpl, nil
}

// RenderInvoice renders an invoice with its payment history
func (r *DocumentRenderer) RenderInvoice(ctx context.Context, inv *appinvoicing.InvoiceResponse, payments []appinvoicing.PaymentResponse) ([]byte, error) {
	return r.render(ctx, r.invoice, r.invoiceView(inv, payments))
}

// InvoiceHTML returns the HTML an invoice is printed from
func (r *DocumentRenderer) InvoiceHTML(inv *appinvoicing.InvoiceResponse, payments []appinvoicing.PaymentResponse) (string, error) {
	return r.execute(r.invoice, r.invoiceView(inv, payments))
}

func (r *DocumentRenderer) invoiceView(inv *appinvoicing.InvoiceResponse, payments []appinvoicing.PaymentResponse) documentView {
	return documentView{
		Title:       "Invoice " + inv.InvoiceNumber,
		Heading:     "INVOICE",
		Issuer:      r.issuer,
		Number:      inv.InvoiceNumber,
		Status:      inv.Status,
		ClientLabel: "Bill to",
		Client:      inv.Client,
		Items:       inv.Items,
		Totals:      inv.TotalsResponse,
		Notes:       inv.Notes,
		Terms:       inv.Terms,
		Invoice:     inv,
		Payments:    payments,
	}
}

// RenderQuote renders a quote
func (r *DocumentRenderer) RenderQuote(ctx context.Context, q *appinvoicing.QuoteResponse) ([]byte, error) {
	return r.render(ctx, r.quote, r.quoteView(q))
}

// QuoteHTML returns the HTML a quote is printed from
func (r *DocumentRenderer) QuoteHTML(q *appinvoicing.QuoteResponse) (string, error) {
	return r.execute(r.quote, r.quoteView(q))
}

func (r *DocumentRenderer) quoteView(q *appinvoicing.QuoteResponse) documentView {
	return documentView{
		Title:       "Quote " + q.QuoteNumber,
		Heading:     "QUOTE",
		Issuer:      r.issuer,
		Number:      q.QuoteNumber,
		Status:      q.Status,
		ClientLabel: "Prepared for",
		Client:      q.Client,
		Items:       q.Items,
		Totals:      q.TotalsResponse,
		Notes:       q.Notes,
		Terms:       q.Terms,
		Quote:       q,
	}
}

func (r *DocumentRenderer) execute(tmpl *template.Template, view documentView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute "+tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (r *DocumentRenderer) render(ctx context.Context, tmpl *template.Template, view documentView) ([]byte, error) {
	html, err := r.execute(tmpl, view)
	if err != nil {
		return nil, err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       html,
		Title:      view.Title,
		PaperSize:  r.paperSize,
		Margins:    DefaultMargins(),
		FooterHTML: footer(view.Number),
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Document rendered",
		zap.String("number", view.Number),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
	)
	return result.PDFData, nil
}

// footer prints the document number and page counter using Chrome's footer placeholders
func footer(number string) string {
	return fmt.Sprintf(`<div style="font-size:8pt;width:100%%;padding:0 15mm;color:#888;display:flex;justify-content:space-between">`+
		`<span>%s</span><span><span class="pageNumber"></span> / <span class="totalPages"></span></span></div>`,
		template.HTMLEscapeString(number))
}

// Ensure DocumentRenderer implements the application renderer
var _ appinvoicing.DocumentRenderer = (*DocumentRenderer)(nil)
