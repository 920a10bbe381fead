package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nodecfg/nodecfg/graph"
)

// WebSocket timeout constants following Gorilla best practices
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer (1MB covers any graph document)
	maxMessageSize = 1024 * 1024
)

// Client represents one editor websocket connection. The send channel is
// never closed; teardown closes done instead so concurrent enqueues stay
// safe.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan *editorResponse
	done      chan struct{}
	id        string
	closeOnce sync.Once
}

func newClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		server: s,
		conn:   conn,
		send:   make(chan *editorResponse, 32),
		done:   make(chan struct{}),
		id:     uuid.NewString(),
	}
}

// enqueue queues a message, blocking until accepted or the client closes
func (c *Client) enqueue(msg *editorResponse) {
	select {
	case c.send <- msg:
	case <-c.done:
	case <-c.server.ctx.Done():
	}
}

// tryEnqueue queues a message without blocking; false means the buffer is
// full
func (c *Client) tryEnqueue(msg *editorResponse) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return true // closing anyway, not the hub's problem
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump handles reading messages from the websocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", "client_id", c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.server.logger.Warnw("WebSocket read error",
					"error", err.Error(),
					"client_id", c.id,
				)
			}
			break
		}

		var msg EditorMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				"error", err.Error(),
				"client_id", c.id,
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// writePump writes queued responses to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", "client_id", c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Warnw("WebSocket write error",
					"error", err.Error(),
					"client_id", c.id,
				)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// routeMessage dispatches incoming editor messages to their handlers
func (c *Client) routeMessage(msg *EditorMessage) {
	switch msg.Type {
	case "create_node":
		c.handleCreateNode(msg)
	case "remove_node":
		c.handleRemoveNode(msg)
	case "connect":
		c.handleConnect(msg)
	case "remove_link":
		c.handleRemoveLink(msg)
	case "set_native":
		c.handleSetNative(msg)
	case "build_config":
		c.handleBuildConfig(msg)
	case "import_config":
		c.handleImportConfig(msg)
	case "clear":
		c.handleClear()
	case "ping":
		// Deadline already refreshed by the pong handler
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			"client_id", c.id,
		)
	}
}

func (c *Client) fail(op string, err error) {
	c.server.logger.Warnw("Editor operation failed",
		"op", op,
		"client_id", c.id,
		"error", err.Error(),
	)
	c.enqueue(&editorResponse{Type: op, Error: err.Error()})
}

func (c *Client) handleCreateNode(msg *EditorMessage) {
	s := c.server
	s.mu.Lock()
	if len(s.graph.Nodes()) >= s.cfg.GetMaxNodes() {
		s.mu.Unlock()
		c.enqueue(&editorResponse{Type: "create_node", Error: "node limit reached"})
		return
	}
	n, err := s.graph.CreateNode(msg.Schema, msg.Class)
	s.mu.Unlock()
	if err != nil {
		c.fail("create_node", err)
		return
	}
	s.logger.Infow("Node created",
		"client_id", c.id,
		"node_id", n.ID,
		"class", n.Class,
	)
	s.broadcastGraph()
}

func (c *Client) handleRemoveNode(msg *EditorMessage) {
	s := c.server
	s.mu.Lock()
	n := s.graph.NodeByID(msg.NodeID)
	if n != nil {
		s.graph.RemoveNode(n)
	}
	s.mu.Unlock()
	if n == nil {
		c.enqueue(&editorResponse{Type: "remove_node", Error: "node not found"})
		return
	}
	s.broadcastGraph()
}

func (c *Client) handleConnect(msg *EditorMessage) {
	s := c.server
	s.mu.Lock()
	origin := s.graph.NodeByID(msg.Origin)
	target := s.graph.NodeByID(msg.Target)
	var (
		l   *graph.Link
		err error
	)
	if origin != nil && target != nil {
		l, err = s.graph.Connect(origin, msg.OriginSlot, target, msg.TargetSlot)
	}
	s.mu.Unlock()

	if origin == nil || target == nil {
		c.enqueue(&editorResponse{Type: "connect", Error: "endpoint not found"})
		return
	}
	if err != nil {
		c.fail("connect", err)
		return
	}
	s.logger.Debugw("Link created",
		"client_id", c.id,
		"link_id", l.ID,
		"type", l.Type,
	)
	s.broadcastGraph()
}

func (c *Client) handleRemoveLink(msg *EditorMessage) {
	s := c.server
	s.mu.Lock()
	s.graph.RemoveLink(msg.LinkID)
	s.mu.Unlock()
	s.broadcastGraph()
}

func (c *Client) handleSetNative(msg *EditorMessage) {
	s := c.server
	s.mu.Lock()
	n := s.graph.NodeByID(msg.NodeID)
	slot := -1
	if n != nil {
		slot = n.InputIndex(msg.Field)
		if slot >= 0 {
			n.SetNative(slot, msg.Value)
		}
	}
	s.mu.Unlock()

	if n == nil {
		c.enqueue(&editorResponse{Type: "set_native", Error: "node not found"})
		return
	}
	if slot < 0 {
		c.enqueue(&editorResponse{Type: "set_native", Error: "unknown field " + msg.Field})
		return
	}
	s.broadcastGraph()
}

func (c *Client) handleBuildConfig(msg *EditorMessage) {
	s := c.server
	sch, ok := s.registry.Get(msg.Schema)
	if !ok {
		c.enqueue(&editorResponse{Type: "build_config", Error: "unknown schema " + msg.Schema})
		return
	}
	s.mu.Lock()
	doc, err := graph.NewBuilder(s.graph, sch, s.logger).Build()
	s.mu.Unlock()
	if err != nil {
		c.fail("build_config", err)
		return
	}
	c.enqueue(&editorResponse{Type: "build_config", Payload: doc})
}

func (c *Client) handleImportConfig(msg *EditorMessage) {
	s := c.server
	sch, ok := s.registry.Get(msg.Schema)
	if !ok {
		c.enqueue(&editorResponse{Type: "import_config", Error: "unknown schema " + msg.Schema})
		return
	}
	s.mu.Lock()
	report, err := graph.NewImporter(s.graph, sch, s.logger).Import(msg.Config)
	s.mu.Unlock()
	if err != nil {
		c.fail("import_config", err)
		return
	}
	c.enqueue(&editorResponse{Type: "import_config", Payload: report})
	s.broadcastGraph()
}

func (c *Client) handleClear() {
	s := c.server
	s.mu.Lock()
	s.graph.Clear()
	s.mu.Unlock()
	s.broadcastGraph()
}
