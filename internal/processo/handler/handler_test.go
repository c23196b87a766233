package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/processo/testutil"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
	"github.com/apoio-migrante/gestor-processos/internal/shared/notion"
	"github.com/apoio-migrante/gestor-processos/internal/shared/storage"
)

type fakeNotion struct{}

func (fakeNotion) QueryDatabase(_ context.Context, dbID, query string) ([]notion.Page, error) {
	ativo := true
	if dbID == "db-down" {
		return nil, errors.New("upstream 500")
	}
	return []notion.Page{{
		ID:  dbID + "-p1",
		URL: "https://notion.so/p1",
		Properties: map[string]notion.Property{
			"Name":  {Type: "title", Title: []notion.RichText{{PlainText: "Maria " + query}}},
			"Ativo": {Type: "checkbox", Checkbox: &ativo},
		},
	}}, nil
}

func (fakeNotion) GetPage(_ context.Context, pageID string) (*notion.Page, error) {
	if pageID == "bad" {
		return nil, &notion.APIError{StatusCode: 404, Code: "object_not_found", Message: "not found"}
	}
	return &notion.Page{ID: pageID, URL: "https://notion.so/" + pageID, Properties: map[string]notion.Property{
		"Name": {Type: "title", Title: []notion.RichText{{PlainText: "Maria"}}},
	}}, nil
}

func (fakeNotion) TitleProperty() string { return "Name" }

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return "<msg-1@example.org>", nil
}

type testEnv struct {
	Router    *gin.Engine
	Store     *repository.JSONFileStore
	Services  *service.Services
	UploadDir string
	Sender    *recordingSender
}

func setupTest(t *testing.T, sender mail.Sender) *testEnv {
	t.Helper()
	store := testutil.TempStore(t)
	uploadDir := t.TempDir()

	var notionClient service.NotionClient = fakeNotion{}
	svcs := service.NewServices(service.Deps{
		Store:    store,
		Registry: registry.MustNew(),
		Notion:   notionClient,
		Sender:   sender,
		MailFrom: "apoio@example.org",
	})
	h := NewHandlers(svcs, Options{
		Storage:       storage.NewLocal(uploadDir),
		MaxUploadSize: 1 << 20,
		Version:       "1.2.3",
		Checks: map[string]ReadyCheck{
			"store": func(context.Context) error { return nil },
		},
	})

	r := testutil.SetupRouter()
	RegisterRoutes(r, h)

	env := &testEnv{Router: r, Store: store, Services: svcs, UploadDir: uploadDir}
	if rs, ok := sender.(*recordingSender); ok {
		env.Sender = rs
	}
	return env
}

func TestSaveProcessoTwiceKeepsCreation(t *testing.T) {
	env := setupTest(t, nil)
	id := "CPLP-l9x2k3-0a1b2c3d"

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/save-processo", map[string]any{
		"processId":    id,
		"tipoProcesso": "CPLP",
		"campos":       map[string]any{"requerente": map[string]any{"nomeCompleto": "Ana"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.ParseResponse(w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, id, resp["processId"])

	first := testutil.ReadStoreFile(t, env.Store.Path())
	require.Len(t, first, 1)

	time.Sleep(5 * time.Millisecond)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/save-processo", map[string]any{
		"processId":    id,
		"tipoProcesso": "CPLP",
		"campos":       map[string]any{"requerente": map[string]any{"nomeCompleto": "Ana Maria"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	second := testutil.ReadStoreFile(t, env.Store.Path())
	require.Len(t, second, 1)
	assert.Equal(t, "Ana Maria", second[0].GetString("requerente.nomeCompleto"))
	assert.True(t, first[0].Timestamps.Criacao.Equal(second[0].Timestamps.Criacao))
	assert.False(t, second[0].Timestamps.UltimaAtualizacao.Before(first[0].Timestamps.UltimaAtualizacao))

	raw, err := os.ReadFile(env.Store.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "2-space indented array")
}

func TestSaveProcessoValidation(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/save-processo", map[string]any{"tipoProcesso": "CPLP"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, testutil.ParseResponse(w)["success"])

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/save-processo", map[string]any{
		"processId": "CPLP-l9x2k3-0a1b2c3d",
		"campos":    map[string]any{"requerente": map[string]any{"nacionalidade": "MARCIANA"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/save-processo", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotionSearch(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/notion/search", map[string]any{"query": "silva"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/notion/search", map[string]any{
		"query":       "silva",
		"databaseIds": []string{"db-1", "db-down"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := testutil.ParseResponse(w)["results"].([]any)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	assert.Equal(t, "db-1-p1", hit["id"])
	assert.Equal(t, "Maria silva", hit["name"])
	assert.Equal(t, "db-1", hit["databaseId"])
	assert.Equal(t, true, hit["properties"].(map[string]any)["Ativo"])
}

func TestNotionPage(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/notion/page/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.ParseResponse(w)
	assert.Equal(t, "abc", resp["id"])
	assert.Equal(t, "Maria", resp["properties"].(map[string]any)["Name"])

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/notion/page/bad", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp = testutil.ParseResponse(w)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["message"])
}

func TestEmailSend(t *testing.T) {
	env := setupTest(t, &recordingSender{})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/email/send", map[string]any{"to": "a@example.com", "subject": "Olá"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/email/send", map[string]any{
		"to":      "a@example.com, b@example.com",
		"cc":      []string{"c@example.com"},
		"subject": "Pedido",
		"html":    "<p>Olá</p>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.ParseResponse(w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "<msg-1@example.org>", resp["messageId"])

	require.Len(t, env.Sender.sent, 1)
	msg := env.Sender.sent[0]
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
	assert.Equal(t, []string{"c@example.com"}, msg.Cc)
	assert.Equal(t, "apoio@example.org", msg.From)
}

func TestEmailSendFailure(t *testing.T) {
	env := setupTest(t, mail.Disabled{})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/email/send", map[string]any{
		"to": []string{"a@example.com"}, "subject": "Pedido", "html": "<p>x</p>",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := testutil.ParseResponse(w)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "not configured")
	assert.NotEmpty(t, resp["message"])
}

func TestUploadOverwritesSameName(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoUpload(env.Router, "/api/upload-documento", "file", map[string][]byte{"passaporte.pdf": []byte("v1")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.ParseResponse(w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "passaporte.pdf", resp["filename"])
	assert.EqualValues(t, 2, resp["size"])

	w = testutil.DoUpload(env.Router, "/api/upload-documento", "file", map[string][]byte{"passaporte.pdf": []byte("v2!")})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := os.ReadFile(filepath.Join(env.UploadDir, DirDocumentos, "passaporte.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "v2!", string(got))

	w = testutil.DoUpload(env.Router, "/api/upload-pdf", "files", map[string][]byte{"pedido.pdf": []byte("%PDF")})
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(filepath.Join(env.UploadDir, DirPDFs, "pedido.pdf"))
	assert.NoError(t, err)

	w = testutil.DoUpload(env.Router, "/api/upload-pdf", "other", map[string][]byte{"x.pdf": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessoLifecycle(t *testing.T) {
	env := setupTest(t, &recordingSender{})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/processos", map[string]any{"tipoProcesso": "ReagrupamentoConjuge"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := testutil.Data(w)["processId"].(string)
	assert.True(t, strings.HasPrefix(id, "ReagrupamentoConjuge-"))

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/"+id+"/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{{pessoaReagrupada.nomeCompleto}} - Reagrupamento Familiar", testutil.Data(w)["cartao"])

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/"+id+"/documento", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, testutil.Data(w)["html"], "<table")

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/"+id+"/documento?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/processos/"+id+"/enviar-email", map[string]any{"to": "sef@example.pt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "enviado", testutil.Data(w)["status"])

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, testutil.Data(w)["total"])

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/nao-existe", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/processos", map[string]any{"tipoProcesso": "Inventado"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportXLSX(t *testing.T) {
	env := setupTest(t, nil)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/processos", map[string]any{"tipoProcesso": "CPLP"})

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/processos/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "processos_")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestFormFlow(t *testing.T) {
	env := setupTest(t, nil)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/processos", map[string]any{"tipoProcesso": "ReagrupamentoPaiMaeFora"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := testutil.Data(w)["processId"].(string)
	base := "/api/processos/" + id

	w = testutil.DoRequest(env.Router, http.MethodGet, base+"/formulario", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := testutil.Data(w)
	assert.Equal(t, "viewing", view["state"])
	assert.Equal(t, "PAI", view["values"].(map[string]any)["pessoaQueRegrupa.parentesco"])

	w = testutil.DoRequest(env.Router, http.MethodPatch, base+"/campos", map[string]any{"path": "pessoaQueRegrupa.nomeCompleto", "value": "Rui"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, base+"/editar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "editing", testutil.Data(w)["state"])

	w = testutil.DoRequest(env.Router, http.MethodPatch, base+"/campos", map[string]any{"path": "pessoaQueRegrupa.nomeCompleto", "value": "Rui"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.DoRequest(env.Router, http.MethodPatch, base+"/campos", map[string]any{"path": "pessoaQueRegrupa.parentesco", "value": "AVÔ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPut, base+"/outros-detalhes", map[string]any{"outrosDetalhes": "Ligar à tarde"})
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, base+"/checkboxes/alojamento", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, testutil.Data(w)["checked"])

	w = testutil.DoRequest(env.Router, http.MethodPost, base+"/checkboxes/inexistente", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 1, env.Services.Forms.Len())
	w = testutil.DoRequest(env.Router, http.MethodPost, base+"/guardar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "viewing", testutil.Data(w)["state"])
	assert.Equal(t, 0, env.Services.Forms.Len())

	stored := testutil.ReadStoreFile(t, env.Store.Path())
	require.Len(t, stored, 1)
	assert.Equal(t, "Rui", stored[0].GetString("pessoaQueRegrupa.nomeCompleto"))
	assert.Equal(t, "PAI", stored[0].GetString("pessoaQueRegrupa.parentesco"))
	assert.Equal(t, "FILHO", stored[0].GetString("pessoaReagrupada.parentesco"))
	assert.Equal(t, "Ligar à tarde", stored[0].OutrosDetalhes)
	assert.True(t, stored[0].SelectedFields["alojamento"])

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/processos/nao-existe/editar", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTipos(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/tipos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tipos := testutil.ParseResponse(w)["data"].([]any)
	assert.GreaterOrEqual(t, len(tipos), 6)

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/tipos/NaoExiste", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tipo := testutil.Data(w)["tipo"].(map[string]any)
	assert.Equal(t, "default", tipo["id"])
}

func TestHealth(t *testing.T) {
	env := setupTest(t, nil)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", testutil.ParseResponse(w)["status"])

	w = testutil.DoRequest(env.Router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodGet, "/version", nil)
	assert.Equal(t, "1.2.3", testutil.ParseResponse(w)["version"])

	failing := NewHealthHandler("", map[string]ReadyCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	r := testutil.SetupRouter()
	r.GET("/health/ready", failing.Ready)
	w = testutil.DoRequest(r, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection refused", testutil.ParseResponse(w)["checks"].(map[string]any)["redis"])
}

func TestSSEStreamReceivesRegenerate(t *testing.T) {
	env := setupTest(t, nil)
	hub := env.Services.Events

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events?processId=CPLP-a-1", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.Router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	hub.PublishRegenerate("CPLP-b-2")
	hub.PublishRegenerate("CPLP-a-1")
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: documento_regenerar\ndata: {\"processId\":\"CPLP-a-1\"}")
	assert.NotContains(t, body, "CPLP-b-2")
	assert.Equal(t, 0, hub.Count())
}
