package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	contactdomain "github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

func (s *Server) CreateContact(c *gin.Context) {
	var req contactdomain.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)

	contact, err := s.contactSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": contact})
}

func (s *Server) GetContactByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	contact, err := s.contactSvc.GetByID(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

func (s *Server) UpdateContact(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req contactdomain.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.ContactID = id

	contact, err := s.contactSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

func (s *Server) DeleteContact(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := s.contactSvc.Delete(c.Request.Context(), s.actingUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListContacts(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListContactRequest{
		Pagination: page,
		UserID:     s.actingUserID(c),
		Query:      strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
