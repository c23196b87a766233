package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/form"
)

// FormHandler drives the per-record form sessions.
type FormHandler struct {
	sessions *form.Sessions
}

func NewFormHandler(sessions *form.Sessions) *FormHandler {
	return &FormHandler{sessions: sessions}
}

// FormView state of one form session as seen by the frontend.
type FormView struct {
	ProcessID      string            `json:"processId"`
	TipoProcesso   string            `json:"tipoProcesso"`
	State          string            `json:"state"`
	Values         map[string]string `json:"values"`
	SelectedFields map[string]bool   `json:"selectedFields"`
	OutrosDetalhes string            `json:"outrosDetalhes"`
}

func viewOf(f *form.Controller) FormView {
	rec := f.Record()
	return FormView{
		ProcessID:      rec.ProcessID,
		TipoProcesso:   f.Schema().ID,
		State:          f.State().String(),
		Values:         f.Values(),
		SelectedFields: rec.SelectedFields,
		OutrosDetalhes: rec.OutrosDetalhes,
	}
}

func (h *FormHandler) session(c *gin.Context) (*form.Controller, bool) {
	f, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return nil, false
	}
	return f, true
}

// View GET /api/processos/:id/formulario
func (h *FormHandler) View(c *gin.Context) {
	f, ok := h.session(c)
	if !ok {
		return
	}
	Success(c, viewOf(f))
}

// Editar POST /api/processos/:id/editar
func (h *FormHandler) Editar(c *gin.Context) {
	f, ok := h.session(c)
	if !ok {
		return
	}
	f.Edit()
	Success(c, viewOf(f))
}

type campoRequest struct {
	Path  string `json:"path" binding:"required"`
	Value any    `json:"value"`
}

// SetCampo PATCH /api/processos/:id/campos
func (h *FormHandler) SetCampo(c *gin.Context) {
	var req campoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Pedido inválido: "+err.Error())
		return
	}
	f, ok := h.session(c)
	if !ok {
		return
	}
	if err := f.SetField(c.Request.Context(), req.Path, req.Value); err != nil {
		Fail(c, err)
		return
	}
	Success(c, viewOf(f))
}

// ToggleCheckbox POST /api/processos/:id/checkboxes/:checkboxId
func (h *FormHandler) ToggleCheckbox(c *gin.Context) {
	f, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("checkboxId")
	checked, err := f.ToggleCheckbox(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"checkboxId": id, "checked": checked})
}

// SetOutrosDetalhes PUT /api/processos/:id/outros-detalhes
func (h *FormHandler) SetOutrosDetalhes(c *gin.Context) {
	var req struct {
		OutrosDetalhes string `json:"outrosDetalhes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Pedido inválido: "+err.Error())
		return
	}
	f, ok := h.session(c)
	if !ok {
		return
	}
	if err := f.SetOutrosDetalhes(c.Request.Context(), req.OutrosDetalhes); err != nil {
		Fail(c, err)
		return
	}
	Success(c, viewOf(f))
}

// Guardar POST /api/processos/:id/guardar saves and ends the session; the
// next request opens a fresh one from the store.
func (h *FormHandler) Guardar(c *gin.Context) {
	f, ok := h.session(c)
	if !ok {
		return
	}
	if err := f.Save(c.Request.Context()); err != nil {
		Fail(c, err)
		return
	}
	view := viewOf(f)
	h.sessions.Close(c.Param("id"))
	Success(c, view)
}
