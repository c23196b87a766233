package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/shared/storage"
)

// Upload target directories.
const (
	DirDocumentos = "documentos"
	DirPDFs       = "pdfs"
)

// UploadHandler stores client documents under their original name.
type UploadHandler struct {
	store   storage.Storage
	maxSize int64
	logger  *zap.Logger
}

func NewUploadHandler(store storage.Storage, maxSize int64, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{store: store, maxSize: maxSize, logger: logger}
}

// UploadDocumento POST /api/upload-documento
func (h *UploadHandler) UploadDocumento(c *gin.Context) {
	h.upload(c, DirDocumentos)
}

// UploadPDF POST /api/upload-pdf
func (h *UploadHandler) UploadPDF(c *gin.Context) {
	h.upload(c, DirPDFs)
}

func (h *UploadHandler) upload(c *gin.Context, dir string) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Armazenamento não configurado"})
		return
	}
	if h.maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize)
	}

	form, err := c.MultipartForm()
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"success": false, "message": "Não foi possível ler o ficheiro: " + err.Error()})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Nenhum ficheiro enviado"})
		return
	}

	stored := make([]storage.Object, 0, len(files))
	for _, fh := range files {
		obj, err := h.put(c, dir, fh)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrInvalidName) {
				status = http.StatusBadRequest
			}
			h.logger.Error("upload failed", zap.String("dir", dir), zap.String("filename", fh.Filename), zap.Error(err))
			c.JSON(status, gin.H{"success": false, "message": "Erro ao guardar ficheiro: " + err.Error()})
			return
		}
		stored = append(stored, obj)
	}

	first := stored[0]
	resp := gin.H{
		"success":  true,
		"filename": first.Filename,
		"path":     first.Path,
		"size":     first.Size,
	}
	if len(stored) > 1 {
		resp["files"] = stored
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UploadHandler) put(c *gin.Context, dir string, fh *multipart.FileHeader) (storage.Object, error) {
	src, err := fh.Open()
	if err != nil {
		return storage.Object{}, err
	}
	defer src.Close()
	return h.store.Put(c.Request.Context(), dir, fh.Filename, src, fh.Size, fh.Header.Get("Content-Type"))
}
