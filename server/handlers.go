package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/version"
)

// routes registers every HTTP endpoint on the mux
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/templates", s.handleTemplates)
	mux.HandleFunc("/api/schemas", s.handleSchemas)
	mux.HandleFunc("/api/config/build", s.handleConfigBuild)
	mux.HandleFunc("/api/config/import", s.handleConfigImport)
}

// upgrader validates websocket origins against the configured whitelist
func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.GetServerAllowedOrigins()
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser clients
			}
			for _, a := range allowed {
				if strings.HasPrefix(origin, a) {
					return true
				}
			}
			s.logger.Warnw("Rejected websocket origin", "origin", origin)
			return false
		},
	}
}

// handleWebSocket upgrades the connection and starts the client pumps
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err.Error())
		return
	}

	client := newClient(s, conn)
	s.register <- client

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, version.Get())
}

// handleGraph serves the serialized graph (GET) or replaces it from a
// serialized document (PUT)
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		doc := s.graph.Serialize()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, doc)

	case http.MethodPut:
		var doc graph.Document
		if err := readJSON(w, r, &doc); err != nil {
			return
		}
		s.mu.Lock()
		report := s.graph.Deserialize(&doc)
		s.mu.Unlock()
		s.broadcastGraph()
		writeJSON(w, http.StatusOK, report)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": s.catalog.Templates(),
	})
}

// schemaRequest is the registration payload for POST /api/schemas
type schemaRequest struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	RefType   string `json:"ref_type"`
	RootClass string `json:"root_class"`
}

// handleSchemas lists registered schemas (GET) or registers a new one (POST)
func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"schemas": s.registry.Names(),
		})

	case http.MethodPost:
		var req schemaRequest
		if err := readJSON(w, r, &req); err != nil {
			return
		}
		sch, err := s.registry.Register(req.Name, req.Source, req.RefType, req.RootClass)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.catalog.AddSchema(sch)
		s.logger.Infow("Schema registered via API",
			"schema", sch.Name,
			"classes", len(sch.Order),
		)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"schema":  sch.Name,
			"classes": sch.Order,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleConfigBuild(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sch, ok := s.registry.Get(r.URL.Query().Get("schema"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown schema")
		return
	}

	s.mu.Lock()
	doc, err := graph.NewBuilder(s.graph, sch, s.logger).Build()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleConfigImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	sch, ok := s.registry.Get(r.URL.Query().Get("schema"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown schema")
		return
	}

	var doc map[string]interface{}
	if err := readJSON(w, r, &doc); err != nil {
		return
	}

	s.mu.Lock()
	report, err := graph.NewImporter(s.graph, sch, s.logger).Import(doc)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.broadcastGraph()
	writeJSON(w, http.StatusOK, report)
}
