package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
)

// SetupRouter creates a gin test router with panic recovery.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// TempStore a JSON file store in a fresh temp directory.
func TempStore(t *testing.T) *repository.JSONFileStore {
	t.Helper()
	return repository.NewJSONFileStore(filepath.Join(t.TempDir(), "processos.json"))
}

// ReadStoreFile decodes the raw JSON array written by a JSONFileStore.
func ReadStoreFile(t *testing.T, path string) []entity.Processo {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	var records []entity.Processo
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode store file: %v", err)
	}
	return records
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			reqBody = bytes.NewBufferString(b)
		default:
			jsonBytes, _ := json.Marshal(body)
			reqBody = bytes.NewBuffer(jsonBytes)
		}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DoUpload posts files as multipart parts named field.
func DoUpload(r http.Handler, path, field string, files map[string][]byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, _ := mw.CreateFormFile(field, name)
		part.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data returns the "data" object of an enveloped response.
func Data(w *httptest.ResponseRecorder) map[string]interface{} {
	data, _ := ParseResponse(w)["data"].(map[string]interface{})
	return data
}
