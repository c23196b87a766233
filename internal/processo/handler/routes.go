package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every endpoint on r.
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/version", h.Health.Version)

	api := r.Group("/api")
	{
		api.POST("/notion/search", h.Notion.Search)
		api.GET("/notion/page/:pageId", h.Notion.Page)

		api.POST("/email/send", h.Email.Send)
		api.POST("/save-processo", h.Processo.SaveProcesso)
		api.POST("/upload-documento", h.Upload.UploadDocumento)
		api.POST("/upload-pdf", h.Upload.UploadPDF)

		api.GET("/tipos", h.Tipo.List)
		api.GET("/tipos/:tipo", h.Tipo.Get)

		api.GET("/events", h.SSE.Stream)

		processos := api.Group("/processos")
		{
			processos.POST("", h.Processo.Create)
			processos.GET("", h.Processo.List)
			processos.GET("/export.xlsx", h.Processo.Export)
			processos.GET("/:id", h.Processo.Get)
			processos.GET("/:id/templates", h.Processo.Templates)
			processos.GET("/:id/documento", h.Processo.Documento)
			processos.POST("/:id/enviar-email", h.Processo.EnviarEmail)

			processos.GET("/:id/formulario", h.Form.View)
			processos.POST("/:id/editar", h.Form.Editar)
			processos.PATCH("/:id/campos", h.Form.SetCampo)
			processos.POST("/:id/checkboxes/:checkboxId", h.Form.ToggleCheckbox)
			processos.PUT("/:id/outros-detalhes", h.Form.SetOutrosDetalhes)
			processos.POST("/:id/guardar", h.Form.Guardar)
		}
	}
}
