package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/conf"
	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/schema"
)

const testSchemaSource = `
class Tool:
    type: str
    value: Optional[int]

class App:
    title: str
    tools: Optional[List[Union[Tool, Index]]] = []
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zap.NewNop().Sugar()

	registry := schema.NewRegistry(log)
	s, err := registry.Register("pipeline", testSchemaSource, "Index", "App")
	require.NoError(t, err)

	catalog := graph.NewCatalog(log)
	catalog.AddSchema(s)
	g := graph.NewGraph(catalog, log)

	return NewServer(&conf.Config{}, registry, catalog, g, log)
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()

	mux := http.NewServeMux()
	srv.routes(mux)
	mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestHandleSchemas(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Schemas []string `json:"schemas"`
	}
	decode(t, w, &listing)
	assert.Equal(t, []string{"pipeline"}, listing.Schemas)

	w = do(t, srv, http.MethodPost, "/api/schemas", schemaRequest{
		Name:    "extra",
		Source:  "class Widget:\n    label: str\n",
		RefType: "Index",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/api/schemas", nil)
	decode(t, w, &listing)
	assert.Equal(t, []string{"extra", "pipeline"}, listing.Schemas)

	// Rejected registrations change nothing
	w = do(t, srv, http.MethodPost, "/api/schemas", schemaRequest{
		Name:    "bad",
		Source:  "not a schema",
		RefType: "Index",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTemplates(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Templates []*graph.Template `json:"templates"`
	}
	decode(t, w, &listing)
	require.Len(t, listing.Templates, 2)
	assert.Equal(t, "App", listing.Templates[0].Class)
	assert.Equal(t, "Tool", listing.Templates[1].Class)
}

// Re-registering schemas pushes the refreshed template catalog to every
// connected client.
func TestBroadcastTemplates(t *testing.T) {
	srv := newTestServer(t)

	client := &Client{
		server: srv,
		send:   make(chan *editorResponse, 4),
		done:   make(chan struct{}),
		id:     "palette",
	}
	srv.mu.Lock()
	srv.clients[client] = true
	srv.mu.Unlock()

	srv.BroadcastTemplates()

	var msg *editorResponse
	select {
	case msg = <-client.send:
	default:
		t.Fatal("no templates message enqueued")
	}
	require.Equal(t, "templates", msg.Type)

	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	templates, ok := payload["templates"].([]*graph.Template)
	require.True(t, ok)
	require.Len(t, templates, 2)
	assert.Equal(t, "App", templates[0].Class)
	assert.Equal(t, "Tool", templates[1].Class)

	// A schema change shows up in the next broadcast
	extra, err := srv.registry.Register("extra", "class Widget:\n    label: str\n", "Index", "")
	require.NoError(t, err)
	srv.catalog.AddSchema(extra)

	srv.BroadcastTemplates()
	select {
	case msg = <-client.send:
	default:
		t.Fatal("no templates message after re-registration")
	}
	templates = msg.Payload.(map[string]interface{})["templates"].([]*graph.Template)
	assert.Len(t, templates, 3)
}

func TestConfigImportAndBuild(t *testing.T) {
	srv := newTestServer(t)

	config := map[string]interface{}{
		"title": "demo",
		"tools": []interface{}{
			map[string]interface{}{"type": "shell"},
		},
	}
	w := do(t, srv, http.MethodPost, "/api/config/import?schema=pipeline", config)
	require.Equal(t, http.StatusOK, w.Code)

	var report graph.ImportReport
	decode(t, w, &report)
	assert.Equal(t, 2, report.NodesCreated)

	w = do(t, srv, http.MethodGet, "/api/config/build?schema=pipeline", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rebuilt map[string]interface{}
	decode(t, w, &rebuilt)
	assert.Equal(t, "demo", rebuilt["title"])
	tools, ok := rebuilt["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)

	// Unknown schema names 404
	w = do(t, srv, http.MethodGet, "/api/config/build?schema=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphRoundTripOverAPI(t *testing.T) {
	srv := newTestServer(t)

	n, err := srv.graph.CreateNode("pipeline", "Tool")
	require.NoError(t, err)
	n.SetNative(0, "shell")

	w := do(t, srv, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc graph.Document
	decode(t, w, &doc)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "shell", doc.Nodes[0].Values["type"])

	// Restore into the same server
	w = do(t, srv, http.MethodPut, "/api/graph", &doc)
	require.Equal(t, http.StatusOK, w.Code)

	var report graph.ImportReport
	decode(t, w, &report)
	assert.Equal(t, 1, report.NodesCreated)
	require.Len(t, srv.graph.Nodes(), 1)
	assert.Equal(t, n.ID, srv.graph.Nodes()[0].ID)
}

func TestMethodGate(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/templates", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(t, srv, http.MethodDelete, "/api/graph", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
