package handlers

import (
	"net/http"
	"strconv"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	engine *battle.Engine
}

func NewRoomHandler(engine *battle.Engine) *RoomHandler {
	return &RoomHandler{engine: engine}
}

type CreateRoomRequest struct {
	QuizID          uint `json:"quiz_id" binding:"required"`
	MaxParticipants int  `json:"max_participants" example:"4"`
	TimeLimitSec    int  `json:"time_limit_sec" example:"30"`
}

// CreateRoom godoc
// @Summary      Create a battle room
// @Description  Opens a waiting room for the given quiz
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Room settings"
// @Success      201 {object} RoomSnapshot
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap, err := h.engine.CreateRoom(c.Request.Context(), req.QuizID, req.MaxParticipants, req.TimeLimitSec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// GetRoom godoc
// @Summary      Get a battle room
// @Description  Returns the room snapshot including its participant roster
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID"
// @Success      200 {object} RoomSnapshot
// @Failure      404 {object} ErrorResponse
// @Router       /rooms/{id} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	snap, err := h.engine.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListRooms godoc
// @Summary      List battle rooms
// @Description  Lists rooms, optionally filtered by status
// @Tags         rooms
// @Produce      json
// @Param        status query string false "Room status filter" Enums(waiting, starting, in_progress, finished, cancelled)
// @Success      200 {array} RoomSnapshot
// @Failure      500 {object} ErrorResponse
// @Router       /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	snaps, err := h.engine.ListRooms(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// parseLimit reads a ?limit= query with a default and an upper bound.
func parseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
