package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/tree"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period. A ping without a pong inside
	// writeWait drops the connection; reads themselves never time out.
	pingPeriod = 54 * time.Second

	// Events are small JSON objects.
	maxMessageSize = 4096
)

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// checkOrigin has already run.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go client.writePump()
	go client.readPump()

	select {
	case s.register <- client:
	case <-s.hubDone:
		close(client.send)
		conn.Close(websocket.StatusGoingAway, "server stopping")
	}
}

// checkOrigin allows the page served by this process, whichever address it
// was reached on, and the configured host and localhost.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	allowedOrigins := []string{
		r.Host,
		s.Addr(),
		fmt.Sprintf("localhost:%d", s.config.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
	}
	for _, allowed := range allowedOrigins {
		if originURL.Host == allowed {
			return true
		}
	}
	return false
}

func (s *PreviewServer) runWebSocketHub(ctx context.Context) {
	defer close(s.hubDone)

	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return

		case client := <-s.register:
			if client == nil || client.conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			clientCount := len(s.clients)
			s.clientsMutex.Unlock()
			s.log.Debug(ctx, "client connected", "clients", clientCount)

			// New clients start from the current tree.
			s.mu.Lock()
			msg := s.stateMessage()
			s.mu.Unlock()
			if data, err := json.Marshal(msg); err == nil {
				client.send <- data
			}

		case u := <-s.unicast:
			s.clientsMutex.RLock()
			if client, ok := s.clients[u.conn]; ok {
				select {
				case client.send <- u.data:
				default:
				}
			}
			s.clientsMutex.RUnlock()

		case conn := <-s.unregister:
			if conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
				s.log.Debug(ctx, "client disconnected", "clients", len(s.clients))
			}
			s.clientsMutex.Unlock()

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			var failedClients []*websocket.Conn
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					failedClients = append(failedClients, conn)
				}
			}
			s.clientsMutex.RUnlock()

			if len(failedClients) > 0 {
				s.clientsMutex.Lock()
				for _, conn := range failedClients {
					if client, ok := s.clients[conn]; ok {
						delete(s.clients, conn)
						close(client.send)
						conn.Close(websocket.StatusPolicyViolation, "client too slow")
					}
				}
				s.clientsMutex.Unlock()
			}
		}
	}
}

func (s *PreviewServer) closeClients() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for conn, client := range s.clients {
		delete(s.clients, conn)
		close(client.send)
	}
}

// ClientCount is the number of connected browsers.
func (s *PreviewServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// unicast is a message for one client, delivered by the hub so it never
// races with the hub closing the client's send channel.
type unicast struct {
	conn *websocket.Conn
	data []byte
}

// sendTo queues msg for this client only.
func (c *Client) sendTo(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.server.unicast <- unicast{conn: c.conn, data: data}:
	case <-c.server.hubDone:
	}
}

// readPump decodes tree events from the browser and applies them.
func (c *Client) readPump() {
	s := c.server
	defer func() {
		select {
		case s.unregister <- c.conn:
		case <-s.hubDone:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, data, err := c.conn.Read(ctx)

		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway {
				s.log.Debug(ctx, "websocket read ended", "error", err.Error())
			}
			return
		}

		var ev tree.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.sendTo(errorMessage(errors.NewInputError("malformed event", err)))
			continue
		}
		if err := s.Apply(ev); err != nil {
			s.log.Warn(ctx, err, "event rejected", "action", string(ev.Action), "node", ev.NodeID)
			c.sendTo(errorMessage(err))
		}
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.server.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.server.log.Debug(ctx, "websocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
