package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/chat"
)

// RoomHandlers provides HTTP handlers for room and session endpoints.
type RoomHandlers struct {
	rooms    RoomDirectory
	sessions SessionDirectory
	log      *zerolog.Logger
}

func NewRoomHandlers(rooms RoomDirectory, sessions SessionDirectory, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{rooms: rooms, sessions: sessions, log: logger}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=49"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UsersResponse lists the members of one room.
type UsersResponse struct {
	Room  chat.RoomInfo `json:"room"`
	Users []string      `json:"users"`
}

// ListRooms handles GET /api/rooms.
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.rooms.List())
}

// CreateRoom handles POST /api/rooms.
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	id, err := h.rooms.Create(req.Name)
	switch {
	case errors.Is(err, chat.ErrRoomsFull):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, chat.ErrRoomNameInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Str("name", req.Name).Msg("create room failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	info, _ := h.rooms.Lookup(id)
	h.log.Info().Int("room", id).Str("name", info.Name).Msg("room created via admin api")
	c.JSON(http.StatusCreated, info)
}

// ListUsers handles GET /api/rooms/:id/users.
func (h *RoomHandlers) ListUsers(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}
	info, ok := h.rooms.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: chat.ErrRoomNotFound.Error()})
		return
	}

	users := h.rooms.Users(id)
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, UsersResponse{Room: info, Users: users})
}

// ListSessions handles GET /api/sessions.
func (h *RoomHandlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.List())
}
