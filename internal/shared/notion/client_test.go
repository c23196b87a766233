package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageJSON = `{
  "object": "page",
  "id": "page-1",
  "url": "https://www.notion.so/page-1",
  "properties": {
    "Nome": {"id": "title", "type": "title", "title": [{"plain_text": "Ana "}, {"plain_text": "Silva"}]},
    "Notas": {"id": "a", "type": "rich_text", "rich_text": [{"plain_text": "cliente antiga"}]},
    "Tipo": {"id": "b", "type": "select", "select": {"name": "CPLP"}},
    "Etiquetas": {"id": "c", "type": "multi_select", "multi_select": [{"name": "urgente"}, {"name": "pago"}]},
    "Entrada": {"id": "d", "type": "date", "date": {"start": "2024-02-01"}},
    "Idade": {"id": "e", "type": "number", "number": 34},
    "Ativo": {"id": "f", "type": "checkbox", "checkbox": true},
    "Email": {"id": "g", "type": "email", "email": "ana@example.com"},
    "Sem Tipo": {"id": "h", "type": "select", "select": null},
    "Dono": {"id": "i", "type": "people", "people": []}
  }
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{Token: "secret", BaseURL: srv.URL, TitleProperty: "Nome", Timeout: time.Second})
}

func TestQueryDatabase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultVersion, r.Header.Get("Notion-Version"))

		var body struct {
			Filter struct {
				Property string `json:"property"`
				Title    struct {
					Contains string `json:"contains"`
				} `json:"title"`
			} `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Nome", body.Filter.Property)
		assert.Equal(t, "ana", body.Filter.Title.Contains)

		w.Write([]byte(`{"object":"list","results":[` + pageJSON + `],"has_more":false}`))
	})

	pages, err := c.QueryDatabase(context.Background(), "db-1", "ana")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "page-1", pages[0].ID)
	assert.Equal(t, "Ana Silva", pages[0].Title(c.TitleProperty()))
}

func TestGetPageAndFlatten(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages/page-1", r.URL.Path)
		w.Write([]byte(pageJSON))
	})

	page, err := c.GetPage(context.Background(), "page-1")
	require.NoError(t, err)

	flat := FlattenProperties(page.Properties)
	assert.Equal(t, "Ana Silva", flat["Nome"])
	assert.Equal(t, "cliente antiga", flat["Notas"])
	assert.Equal(t, "CPLP", flat["Tipo"])
	assert.Equal(t, []string{"urgente", "pago"}, flat["Etiquetas"])
	assert.Equal(t, "2024-02-01", flat["Entrada"])
	assert.Equal(t, float64(34), flat["Idade"])
	assert.Equal(t, true, flat["Ativo"])
	assert.Nil(t, flat["Email"])
	assert.Contains(t, flat, "Email")
	assert.Nil(t, flat["Sem Tipo"])
	assert.Nil(t, flat["Dono"])
	assert.Contains(t, flat, "Dono")
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`))
	})

	_, err := c.GetPage(context.Background(), "nada")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "object_not_found", apiErr.Code)
}

func TestContextCancelled(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.QueryDatabase(ctx, "db-1", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTitleFallsBackToFirstTitleProperty(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(pageJSON), &page))
	assert.Equal(t, "Ana Silva", page.Title("Name"))
}

func TestDefaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultVersion, c.version)
	assert.Equal(t, DefaultTitleProperty, c.TitleProperty())
}
