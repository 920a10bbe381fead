package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/conf"
	"github.com/nodecfg/nodecfg/errors"
	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/schema"
)

// MaxClients bounds concurrent editor connections
const MaxClients = 32

// Server hosts the live graph for editor clients: a websocket hub for
// incremental edits plus a JSON API for whole-graph and config exchange.
//
// The graph itself is single-writer; every mutation goes through the hub
// mutex so editor messages and HTTP imports serialize.
type Server struct {
	cfg      *conf.Config
	registry *schema.Registry
	catalog  *graph.Catalog
	graph    *graph.Graph

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *graph.Document

	mu     sync.Mutex // guards graph mutations and the client set
	logger *zap.SugaredLogger

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer assembles a server around an existing registry, catalog, and
// graph.
func NewServer(cfg *conf.Config, registry *schema.Registry, catalog *graph.Catalog, g *graph.Graph, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		registry:   registry,
		catalog:    catalog,
		graph:      g,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *graph.Document, 16),
		logger:     log.Named("server"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub event loop. Blocks until Shutdown.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Hub stopping")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case doc := <-s.broadcast:
			s.handleBroadcast(doc)
		}
	}
}

func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			"client_id", client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}
	s.clients[client] = true
	total := len(s.clients)
	doc := s.graph.Serialize()
	s.mu.Unlock()

	s.logger.Infow("Client connected",
		"client_id", client.id,
		"total_clients", total,
	)

	// New clients receive the current graph immediately
	client.enqueue(&editorResponse{Type: "graph", Payload: doc})
}

func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	total := len(s.clients)
	s.mu.Unlock()

	client.close()
	s.logger.Infow("Client disconnected",
		"client_id", client.id,
		"total_clients", total,
	)
}

// handleBroadcast fans a graph document out to every connected client.
// Clients that cannot keep up are dropped rather than blocking the hub.
func (s *Server) handleBroadcast(doc *graph.Document) {
	s.mu.Lock()
	targets := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		targets = append(targets, client)
	}
	s.mu.Unlock()

	msg := &editorResponse{Type: "graph", Payload: doc}
	for _, client := range targets {
		if !client.tryEnqueue(msg) {
			s.logger.Warnw("Client send buffer full, dropping client",
				"client_id", client.id,
			)
			s.handleClientUnregister(client)
		}
	}
}

// BroadcastTemplates pushes the current template catalog to every connected
// client. Serve mode calls this after schemas are re-registered so editor
// palettes refresh without reconnecting.
func (s *Server) BroadcastTemplates() {
	s.mu.Lock()
	targets := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		targets = append(targets, client)
	}
	msg := &editorResponse{Type: "templates", Payload: map[string]interface{}{
		"templates": s.catalog.Templates(),
	}}
	s.mu.Unlock()

	for _, client := range targets {
		if !client.tryEnqueue(msg) {
			s.logger.Warnw("Client send buffer full, dropping client",
				"client_id", client.id,
			)
			s.handleClientUnregister(client)
		}
	}
}

// broadcastGraph snapshots the graph under the hub lock and queues it for
// all clients.
func (s *Server) broadcastGraph() {
	s.mu.Lock()
	doc := s.graph.Serialize()
	s.mu.Unlock()

	select {
	case s.broadcast <- doc:
	case <-s.ctx.Done():
	default:
		s.logger.Warnw("Broadcast queue full, dropping graph update")
	}
}

// Start binds the HTTP server and begins serving. Blocks until the listener
// closes.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.routes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	s.logger.Infow("Server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown drains clients and stops the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for client := range s.clients {
		client.close()
	}
	s.clients = make(map[*Client]bool)
	s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}
