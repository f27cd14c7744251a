package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.ListPlans())
}

func (s *Server) ListItems(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.ListItems())
}
