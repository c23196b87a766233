package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/export"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
)

// ProcessoHandler record endpoints.
type ProcessoHandler struct {
	svc *service.ProcessoService
}

func NewProcessoHandler(svc *service.ProcessoService) *ProcessoHandler {
	return &ProcessoHandler{svc: svc}
}

// SaveProcesso POST /api/save-processo
func (h *ProcessoHandler) SaveProcesso(c *gin.Context) {
	var req entity.Processo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Pedido inválido: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.ProcessID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "processId é obrigatório"})
		return
	}

	saved, err := h.svc.Save(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if isClientError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processId": saved.ProcessID,
		"message":   "Processo guardado com sucesso",
	})
}

type createRequest struct {
	TipoProcesso string `json:"tipoProcesso"`
}

// Create POST /api/processos
func (h *ProcessoHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Pedido inválido: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), req.TipoProcesso)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, p)
}

// List GET /api/processos
func (h *ProcessoHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	if tipo := c.Query("tipo"); tipo != "" {
		filtered := records[:0]
		for _, p := range records {
			if p.TipoProcesso == tipo {
				filtered = append(filtered, p)
			}
		}
		records = filtered
	}
	Success(c, gin.H{"items": records, "total": len(records)})
}

// Get GET /api/processos/:id
func (h *ProcessoHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, p)
}

// Templates GET /api/processos/:id/templates
func (h *ProcessoHandler) Templates(c *gin.Context) {
	t, err := h.svc.Templates(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, t)
}

// Documento GET /api/processos/:id/documento; ?format=html returns the page itself.
func (h *ProcessoHandler) Documento(c *gin.Context) {
	doc, err := h.svc.Documento(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
		return
	}
	Success(c, doc)
}

// EnviarEmail POST /api/processos/:id/enviar-email
func (h *ProcessoHandler) EnviarEmail(c *gin.Context) {
	var req struct {
		To  Recipients `json:"to"`
		Cc  Recipients `json:"cc"`
		Bcc Recipients `json:"bcc"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Pedido inválido: "+err.Error())
		return
	}
	id, err := h.svc.EnviarEmail(c.Request.Context(), c.Param("id"), service.EnvioRequest{
		To:  req.To,
		Cc:  req.Cc,
		Bcc: req.Bcc,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"messageId": id})
}

// Export GET /api/processos/export.xlsx
func (h *ProcessoHandler) Export(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename(time.Now())))
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
