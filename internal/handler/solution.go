package handler

import (
	"net/http"
	"strconv"

	"todaylog/internal/model"
	"todaylog/internal/service"

	"github.com/gin-gonic/gin"
)

type SolutionHandler struct{ solution *service.SolutionService }

func NewSolutionHandler(solution *service.SolutionService) *SolutionHandler {
	return &SolutionHandler{solution: solution}
}

func (h *SolutionHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid solution id"})
		return
	}

	var req model.SolutionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sol, err := h.solution.UpdateFlags(c.Request.Context(), id, c.GetInt("user_id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sol)
}

func (h *SolutionHandler) SubmitFeedback(c *gin.Context) {
	diaryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid diary id"})
		return
	}

	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	fb, err := h.solution.SubmitFeedback(c.Request.Context(), diaryID, c.GetInt("user_id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}
