package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	contactdomain "github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/internal/extraction"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/providers/pdf"
)

// ImportInvoice accepts a multipart upload, runs extraction and
// responds with the created review draft.
func (s *Server) ImportInvoice(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		AbortWithError(c, newValidationError("document", "missing_document", "document file is required"))
		return
	}
	defer file.Close()

	result, err := s.importSvc.Import(c.Request.Context(), extraction.ImportRequest{
		UserID:   s.actingUserID(c),
		Filename: header.Filename,
		Document: file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// DownloadInvoiceDocument streams the original uploaded document.
func (s *Server) DownloadInvoiceDocument(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if item.DocumentKey == nil || *item.DocumentKey == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	reader, err := s.documents.Open(c.Request.Context(), *item.DocumentKey)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.InvoiceNumber+".pdf"))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

// RenderInvoicePDF generates a printable PDF for the invoice.
func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	userID := s.actingUserID(c)
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc := s.buildPDFDocument(c, userID, item)
	reader, err := s.renderer.RenderInvoice(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.InvoiceNumber+".pdf"))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

func (s *Server) buildPDFDocument(c *gin.Context, userID int64, item *invoicedomain.InvoiceWithItems) pdf.Document {
	doc := pdf.Document{
		InvoiceNumber: item.InvoiceNumber,
		IssueDate:     item.IssueDate.Format(dateOnlyLayout),
		Currency:      item.Currency,
		Seller: pdf.Party{
			Name:    s.cfg.Seller.Name,
			Address: s.cfg.Seller.Address,
			Email:   s.cfg.Seller.Email,
			VATID:   s.cfg.Seller.VATID,
		},
		Subtotal:    formatAmount(item.Subtotal.StringFixed(2), item.Currency),
		VATAmount:   formatAmount(item.VATAmount.StringFixed(2), item.Currency),
		Total:       formatAmount(item.Total.StringFixed(2), item.Currency),
		BankDetails: s.cfg.Seller.BankDetails,
	}
	if item.DueAt != nil {
		doc.DueDate = item.DueAt.Format(dateOnlyLayout)
	}
	if item.IsCancellation() {
		doc.Title = "Cancellation invoice"
		if item.CancelledInvoiceID != nil {
			if original, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, *item.CancelledInvoiceID); err == nil {
				doc.CancellationOf = original.InvoiceNumber
			}
		}
	} else {
		doc.AmountPaid = formatAmount(item.AmountPaid.StringFixed(2), item.Currency)
		doc.AmountDue = formatAmount(item.Outstanding().StringFixed(2), item.Currency)
	}

	if item.ContactID != nil {
		if contact, err := s.contactSvc.GetByID(c.Request.Context(), userID, *item.ContactID); err == nil {
			doc.Buyer = pdf.Party{
				Name:    contactDisplayName(contact),
				Address: contactAddress(contact),
				Email:   contact.Email,
				VATID:   contact.VATID,
			}
		}
	}

	for _, line := range item.LineItems {
		doc.Items = append(doc.Items, pdf.Item{
			Description: line.Name,
			Quantity:    line.Quantity.String(),
			UnitPrice:   formatAmount(line.UnitPrice.StringFixed(2), line.Currency),
			Amount:      formatAmount(line.LineTotal.StringFixed(2), line.Currency),
		})
	}
	return doc
}

func formatAmount(amount, currency string) string {
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

func contactDisplayName(contact contactdomain.Contact) string {
	if contact.Company != "" {
		return contact.Company
	}
	return contact.Name
}

func contactAddress(contact contactdomain.Contact) string {
	parts := make([]string, 0, 3)
	if contact.Street != "" {
		parts = append(parts, contact.Street)
	}
	cityLine := strings.TrimSpace(contact.PostalCode + " " + contact.City)
	if cityLine != "" {
		parts = append(parts, cityLine)
	}
	if contact.Country != "" {
		parts = append(parts, contact.Country)
	}
	return strings.Join(parts, ", ")
}
