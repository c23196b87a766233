package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
)

// NotionHandler proxies client lookups to Notion.
type NotionHandler struct {
	search *service.SearchService
}

func NewNotionHandler(search *service.SearchService) *NotionHandler {
	return &NotionHandler{search: search}
}

type searchRequest struct {
	Query       string   `json:"query"`
	DatabaseIDs []string `json:"databaseIds"`
}

// Search POST /api/notion/search
func (h *NotionHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Pedido inválido: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" || len(req.DatabaseIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "query e databaseIds são obrigatórios"})
		return
	}

	results, err := h.search.Search(c.Request.Context(), req.Query, req.DatabaseIDs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotionNotReady) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Page GET /api/notion/page/:pageId
func (h *NotionHandler) Page(c *gin.Context) {
	page, err := h.search.GetPage(c.Request.Context(), c.Param("pageId"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrNotionNotReady) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"success": false, "message": "Erro ao obter página do Notion: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}
