package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
)

type TipoHandler struct {
	reg *registry.Registry
}

func NewTipoHandler(reg *registry.Registry) *TipoHandler {
	return &TipoHandler{reg: reg}
}

// List GET /api/tipos
func (h *TipoHandler) List(c *gin.Context) {
	Success(c, h.reg.List())
}

// Get GET /api/tipos/:tipo. Unknown ids answer with the default type.
func (h *TipoHandler) Get(c *gin.Context) {
	s := h.reg.Lookup(c.Param("tipo"))
	Success(c, gin.H{
		"tipo":       s,
		"jsonSchema": s.JSONSchema(),
	})
}
