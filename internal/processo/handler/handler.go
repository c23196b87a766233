package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/processo/form"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
	"github.com/apoio-migrante/gestor-processos/internal/shared/storage"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Notion   *NotionHandler
	Email    *EmailHandler
	Processo *ProcessoHandler
	Form     *FormHandler
	Tipo     *TipoHandler
	Upload   *UploadHandler
	SSE      *SSEHandler
	Health   *HealthHandler
}

// Options knobs of the handler layer that do not belong to a service.
type Options struct {
	Storage       storage.Storage
	MaxUploadSize int64
	Version       string
	Checks        map[string]ReadyCheck
	Logger        *zap.Logger
}

func NewHandlers(svc *service.Services, opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handlers{
		Notion:   NewNotionHandler(svc.Search),
		Email:    NewEmailHandler(svc.Processo),
		Processo: NewProcessoHandler(svc.Processo),
		Form:     NewFormHandler(svc.Forms),
		Tipo:     NewTipoHandler(svc.Processo.Registry()),
		Upload:   NewUploadHandler(opts.Storage, opts.MaxUploadSize, opts.Logger.Named("upload")),
		SSE:      NewSSEHandler(svc.Events),
		Health:   NewHealthHandler(opts.Version, opts.Checks),
	}
}

// Response envelope of the /api/processos and /api/tipos endpoints.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes code with the HTTP status code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 50300, message)
}

// Fail maps a service error onto the matching response.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, form.ErrNotEditing):
		Conflict(c, err.Error())
	case errors.Is(err, registry.ErrInvalidCampos),
		errors.Is(err, form.ErrUnknownCheckbox),
		errors.Is(err, service.ErrNoProcessID),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrTypeMismatch),
		errors.Is(err, service.ErrNoRecipients),
		errors.Is(err, storage.ErrInvalidName):
		BadRequest(c, err.Error())
	case errors.Is(err, mail.ErrNotConfigured),
		errors.Is(err, service.ErrNotionNotReady):
		ServiceUnavailable(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// isClientError reports errors caused by the request content.
func isClientError(err error) bool {
	return errors.Is(err, registry.ErrInvalidCampos) ||
		errors.Is(err, service.ErrNoProcessID) ||
		errors.Is(err, service.ErrTypeMismatch)
}
