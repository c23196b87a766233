package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
)

// Recipients accepts either a JSON array or a comma separated string.
type Recipients []string

func (r *Recipients) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*r = compact(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("recipients must be a string or an array of strings")
	}
	*r = compact(strings.Split(s, ","))
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EmailHandler sends documents prepared by the frontend.
type EmailHandler struct {
	processos *service.ProcessoService
}

func NewEmailHandler(processos *service.ProcessoService) *EmailHandler {
	return &EmailHandler{processos: processos}
}

type sendRequest struct {
	To      Recipients `json:"to"`
	Cc      Recipients `json:"cc"`
	Bcc     Recipients `json:"bcc"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html"`
}

// Send POST /api/email/send
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Pedido inválido: " + err.Error()})
		return
	}
	if len(req.To) == 0 || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.HTML) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "to, subject e html são obrigatórios"})
		return
	}

	messageID, err := h.processos.SendEmail(c.Request.Context(), mail.Message{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		HTML:    req.HTML,
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"message": "Erro ao enviar email",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": messageID,
		"message":   "Email enviado com sucesso",
	})
}
