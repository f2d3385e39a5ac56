package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleCollabWebSocket upgrades /ws/collaboration/:room/:user/:document and
// runs the connection against the collaboration relay until the transport
// closes. The disconnect path runs exactly once, after the read loop returns.
func (s *Server) handleCollabWebSocket(c *gin.Context) {
	room := c.Param("room")
	user := c.Param("user")
	document := c.Param("document")
	if room == "" || user == "" || document == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room, user, and document are required"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, s.cfg, c.Request.RemoteAddr)
	s.collab.Connect(room, document, user, client)

	s.runSession(client, func(data []byte) {
		s.collab.HandleMessage(room, document, user, client, data)
	})

	s.collab.Disconnect(room, document, user)
	client.Close()
}

// handleChatWebSocket upgrades /ws/chat/:room. Chat carries no client
// identity at the protocol level, so each socket gets a generated connection
// id to key its registry slot.
func (s *Server) handleChatWebSocket(c *gin.Context) {
	room := c.Param("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room is required"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	client := NewClient(conn, s.cfg, c.Request.RemoteAddr)
	s.chat.Connect(room, connID, client)

	s.runSession(client, func(data []byte) {
		s.chat.HandleMessage(room, connID, client, data)
	})

	s.chat.Disconnect(room, connID)
	client.Close()
}

// runSession starts the write pump and blocks in the read pump. An unexpected
// fault terminates only this session: the peer gets an internal-error close
// signal and the caller proceeds with the normal disconnect path.
func (s *Server) runSession(client *Client, onMessage func(data []byte)) {
	go client.writePump()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("WebSocket session fault for %s: %v", client.addr, r)
			client.closeWithInternalError()
		}
	}()
	client.readPump(onMessage)
}
