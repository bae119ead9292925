package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	projectdomain "github.com/mantodeus/mantodeus-manager/internal/project/domain"
)

func (s *Server) CreateProject(c *gin.Context) {
	var req projectdomain.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)

	proj, err := s.projectSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": proj})
}

func (s *Server) GetProjectByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	proj, err := s.projectSvc.GetByID(c.Request.Context(), s.actingUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": proj})
}

func (s *Server) UpdateProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req projectdomain.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = s.actingUserID(c)
	req.ProjectID = id

	proj, err := s.projectSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": proj})
}

func (s *Server) DeleteProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := s.projectSvc.Delete(c.Request.Context(), s.actingUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.projectSvc.List(c.Request.Context(), projectdomain.ListProjectsRequest{
		UserID: s.actingUserID(c),
		Status: projectdomain.ProjectStatus(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}
