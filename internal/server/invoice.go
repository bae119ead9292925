package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)

	item, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.InvoiceID = id

	item, err := s.invoiceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contactID, err := parseOptionalSnowflakeID(c.Query("contact_id"))
	if err != nil {
		AbortWithError(c, newValidationError("contact_id", "invalid_id", "invalid id"))
		return
	}
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "invalid year"))
		return
	}

	req := invoicedomain.ListInvoicesRequest{
		UserID:    s.actingUserID(c),
		State:     invoicedomain.DerivedState(strings.TrimSpace(c.Query("state"))),
		Type:      invoicedomain.InvoiceType(strings.TrimSpace(c.Query("type"))),
		ContactID: contactID,
		Year:      year,
		Archived:  c.Query("archived") == "true",
		Trashed:   c.Query("trashed") == "true",
		Query:     strings.TrimSpace(c.Query("q")),
		Page:      page,
	}

	items, pageInfo, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "page_info": pageInfo})
}

func (s *Server) NextInvoiceNumber(c *gin.Context) {
	issueDate := time.Now().UTC()
	if parsed, err := parseOptionalTime(c.Query("issue_date"), false); err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_time", "invalid time"))
		return
	} else if parsed != nil {
		issueDate = *parsed
	}

	result, err := s.invoiceSvc.NextNumber(c.Request.Context(), invoicedomain.NextNumberRequest{
		UserID:    s.actingUserID(c),
		IssueDate: issueDate,
		Seed:      strings.TrimSpace(c.Query("seed")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) IssueInvoice(c *gin.Context) {
	s.lifecycleAction(c, s.invoiceSvc.Issue)
}

func (s *Server) MarkInvoiceAsPaid(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.MarkAsPaidRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.InvoiceID = id

	item, err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RevertInvoiceStatus(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.RevertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.InvoiceID = id

	item, err := s.invoiceSvc.RevertStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) AddInvoicePayment(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.InvoiceID = id

	item, err := s.invoiceSvc.AddPayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateInvoiceCancellation(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.CreateCancellation(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ArchiveInvoice(c *gin.Context) {
	s.lifecycleAction(c, s.invoiceSvc.Archive)
}

func (s *Server) UnarchiveInvoice(c *gin.Context) {
	s.lifecycleAction(c, s.invoiceSvc.Unarchive)
}

func (s *Server) TrashInvoice(c *gin.Context) {
	s.lifecycleAction(c, s.invoiceSvc.MoveToTrash)
}

func (s *Server) RestoreInvoice(c *gin.Context) {
	s.lifecycleAction(c, s.invoiceSvc.Restore)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), s.actingUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) lifecycleAction(c *gin.Context, action lifecycleFunc) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := action(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
