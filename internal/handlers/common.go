package handlers

import (
	"net/http"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"github.com/gin-gonic/gin"
)

// Type aliases so swag can resolve models in annotations.
type RoomSnapshot = battle.RoomSnapshot
type BattleResult = models.BattleResult

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

func statusFor(err error) int {
	switch battle.Kind(err) {
	case battle.KindNotFound:
		return http.StatusNotFound
	case battle.KindConflict:
		return http.StatusConflict
	case battle.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}
