package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"todaylog/internal/model"
	"todaylog/internal/service"

	"github.com/gin-gonic/gin"
)

type DiaryHandler struct {
	diary    *service.DiaryService
	analysis *service.AnalysisService
}

func NewDiaryHandler(diary *service.DiaryService, analysis *service.AnalysisService) *DiaryHandler {
	return &DiaryHandler{diary: diary, analysis: analysis}
}

// Create accepts either a JSON body or a multipart form with a "payload"
// JSON part and an optional "image" file part.
func (h *DiaryHandler) Create(c *gin.Context) {
	req, img, ok := bindDiaryBody(c)
	if !ok {
		return
	}

	var create model.DiaryCreateRequest
	if err := json.Unmarshal(req, &create); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	diary, err := h.diary.Create(c.Request.Context(), c.GetInt("user_id"), create, img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, diary)
}

func (h *DiaryHandler) List(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	offset, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	diaries, err := h.diary.List(c.Request.Context(), c.GetInt("user_id"), year, month, offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, diaries)
}

func (h *DiaryHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid diary id"})
		return
	}

	diary, err := h.diary.Get(c.Request.Context(), id, c.GetInt("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, diary)
}

func (h *DiaryHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid diary id"})
		return
	}

	req, img, ok := bindDiaryBody(c)
	if !ok {
		return
	}

	var update model.DiaryUpdateRequest
	if err := json.Unmarshal(req, &update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	diary, contentChanged, err := h.diary.Update(c.Request.Context(), id, c.GetInt("user_id"), update, img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diary": diary, "content_changed": contentChanged})
}

func (h *DiaryHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid diary id"})
		return
	}

	if err := h.diary.Delete(c.Request.Context(), id, c.GetInt("user_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "diary deleted"})
}

// AnalysisCallback receives results from the AI server. A missing diary is
// an expected race with deletion, acknowledged rather than erred.
func (h *DiaryHandler) AnalysisCallback(c *gin.Context) {
	var cb model.AnalysisCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback"})
		return
	}

	outcome, err := h.analysis.Apply(c.Request.Context(), cb)
	if err != nil {
		fail(c, err)
		return
	}
	if outcome == service.OutcomeDiaryGone {
		c.JSON(http.StatusOK, gin.H{"message": "diary not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "analysis saved"})
}

// bindDiaryBody extracts the JSON payload and optional image from either a
// plain JSON request or a multipart form.
func bindDiaryBody(c *gin.Context) ([]byte, *service.UploadedImage, bool) {
	ct := c.ContentType()
	if ct != "multipart/form-data" {
		data, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return nil, nil, false
		}
		return data, nil, true
	}

	payload := c.PostForm("payload")
	if payload == "" {
		payload = "{}"
	}

	var img *service.UploadedImage
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return nil, nil, false
		}
		// The file handle lives until the request ends; gin closes it.
		img = &service.UploadedImage{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        f,
		}
	}
	return []byte(payload), img, true
}
