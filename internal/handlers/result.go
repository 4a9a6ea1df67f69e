package handlers

import (
	"net/http"

	"github.com/Hun425/CS-Quiz-sub001/internal/services"

	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	results *services.ResultService
}

func NewResultHandler(results *services.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// UserResults godoc
// @Summary      Battle history for a user
// @Description  Returns the user's most recent battle results, newest first
// @Tags         results
// @Produce      json
// @Param        id path string true "User ID"
// @Param        limit query int false "Maximum number of results" default(20)
// @Success      200 {array} BattleResult
// @Failure      500 {object} ErrorResponse
// @Router       /users/{id}/results [get]
func (h *ResultHandler) UserResults(c *gin.Context) {
	limit := parseLimit(c, 20, 100)
	results, err := h.results.LeaderboardForUser(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}
