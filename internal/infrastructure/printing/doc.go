// Package printing renders quotes and invoices to PDF.
//
// Documents are first rendered to HTML with html/template and then printed
// to PDF by headless Chrome through chromedp:
//
//	pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{RemoteURL: url})
//	if err != nil {
//	    return err
//	}
//	defer pdf.Close()
//
//	docs, err := printing.NewDocumentRenderer(pdf, printing.DocumentOptions{})
//	data, err := docs.RenderInvoice(ctx, invoice, payments)
package printing
