package jsonrpcinterface

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsConns tracks the open websocket connections, that are hijacked and
// therefore not closed by the http server shutdown.
type wsConns struct {
	lock  sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func (c *wsConns) add(conn *websocket.Conn) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conns == nil {
		c.conns = make(map[*websocket.Conn]struct{})
	}
	c.conns[conn] = struct{}{}
}

func (c *wsConns) remove(conn *websocket.Conn) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.conns, conn)
}

func (c *wsConns) closeAll() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for conn := range c.conns {
		//nolint:errcheck
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"),
			time.Now().Add(time.Second),
		)
		conn.Close()
		delete(c.conns, conn)
	}
}

// handleWebsocket serves JSON-RPC requests over a websocket, one request
// per text message. Requests of a connection are served in order.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxBodySize + 1)
	s.wsConns.add(conn)
	defer func() {
		s.wsConns.remove(conn)
		conn.Close()
	}()

	for {
		msgType, body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
			) {
				log.WithError(err).Debug("websocket closed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.workers.Acquire(r.Context(), 1); err != nil {
			return
		}
		resp, stop := s.process(r.Context(), body)
		s.workers.Release(1)

		//nolint:errcheck
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.WithError(err).Warn("failed to write jsonrpc response")
			return
		}
		if stop {
			s.stopAsync()
			return
		}
	}
}
