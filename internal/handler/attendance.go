package handler

import (
	"net/http"
	"strconv"

	"todaylog/internal/service"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct{ streak *service.StreakService }

func NewAttendanceHandler(streak *service.StreakService) *AttendanceHandler {
	return &AttendanceHandler{streak: streak}
}

func (h *AttendanceHandler) Monthly(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year required"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month required"})
		return
	}

	rows, err := h.streak.MonthlyAttendance(c.Request.Context(), c.GetInt("user_id"), year, month)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
