package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentora/realtime/internal/rooms"
)

// createRoomRequest is the POST /api/v1/rooms body.
type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// updateRoomRequest carries the mutable room fields; absent fields are left
// untouched, and id/created_at are never updatable.
type updateRoomRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Mentora Collaborative Backend!"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Backend is operational"})
}

func (s *Server) handleListRooms(c *gin.Context) {
	list := s.rooms.List()
	for i := range list {
		list[i].ActiveUsers = s.collab.ActiveUsers(list[i].ID)
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.BindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room name"})
		return
	}
	room := s.rooms.Create(req.Name, req.Description)
	c.JSON(http.StatusCreated, room)
}

// handleGetRoom looks up a room, auto-creating a placeholder record on an
// unknown id (creation-on-miss is the ensure contract, shared with the
// WebSocket connect path). The live participant count comes from the
// collaboration relay.
func (s *Server) handleGetRoom(c *gin.Context) {
	id := c.Param("id")
	room := s.rooms.Ensure(id)
	room.ActiveUsers = s.collab.ActiveUsers(id)
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleUpdateRoom(c *gin.Context) {
	id := c.Param("id")

	var req updateRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	room, ok := s.rooms.Update(id, req.Name, req.Description)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	room.ActiveUsers = s.collab.ActiveUsers(id)
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleDeleteRoom(c *gin.Context) {
	id := c.Param("id")

	room, ok := s.rooms.Delete(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room '" + room.Name + "' deleted successfully"})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	s.handleRoomPresence(c, "Joined room successfully")
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	s.handleRoomPresence(c, "Left room successfully")
}

// handleRoomPresence refreshes a room's live participant count. Presence is
// derived from the registry, so join/leave only re-reads it.
func (s *Server) handleRoomPresence(c *gin.Context, message string) {
	id := c.Param("id")

	room, ok := s.rooms.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	room.ActiveUsers = s.collab.ActiveUsers(id)
	c.JSON(http.StatusOK, gin.H{"message": message, "room": room})
}

func (s *Server) handleDebugRooms(c *gin.Context) {
	list := s.rooms.List()
	byID := make(map[string]rooms.Room, len(list))
	for _, room := range list {
		room.ActiveUsers = s.collab.ActiveUsers(room.ID)
		byID[room.ID] = room
	}
	c.JSON(http.StatusOK, gin.H{
		"room_count": len(byID),
		"rooms":      byID,
	})
}

func (s *Server) handleDebugConnections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connections": s.collab.DumpConnections()})
}

func (s *Server) handleDebugChat(c *gin.Context) {
	c.JSON(http.StatusOK, s.chat.Stats())
}
