package handler

import (
	"net/http"
	"strconv"

	"todaylog/internal/model"
	"todaylog/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{ user *service.UserService }

func NewUserHandler(user *service.UserService) *UserHandler { return &UserHandler{user: user} }

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.user.Profile(c.Request.Context(), c.GetInt("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) MarkMedalRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid achievement id"})
		return
	}

	if err := h.user.MarkMedalRead(c.Request.Context(), c.GetInt("user_id"), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

func (h *UserHandler) UpdateInfo(c *gin.Context) {
	var req model.UserInfoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.user.UpdateInfo(c.Request.Context(), c.GetInt("user_id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.user.DeleteAccount(c.Request.Context(), c.GetInt("user_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *UserHandler) Splash(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"msg_content": h.user.SplashMessage(c.Request.Context())})
}
