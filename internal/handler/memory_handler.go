package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"yedam-go/internal/middleware"
	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/internal/service"

	"github.com/gin-gonic/gin"
)

// MemoryHandler 处理回忆记录的增删查接口。
type MemoryHandler struct {
	memoryService service.MemoryService
	searchService service.SearchService
}

// NewMemoryHandler 创建一个新的 MemoryHandler 实例。
func NewMemoryHandler(memoryService service.MemoryService, searchService service.SearchService) *MemoryHandler {
	return &MemoryHandler{
		memoryService: memoryService,
		searchService: searchService,
	}
}

// Create 创建一条回忆。multipart 表单：meta 为 JSON 字段，images 为文件列表。
// POST /api/memories
func (h *MemoryHandler) Create(c *gin.Context) {
	meta := c.PostForm("meta")
	if meta == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "meta field is required"})
		return
	}

	var req struct {
		Title      string               `json:"title"`
		Content    string               `json:"content"`
		MemoryDate string               `json:"memoryDate"`
		Location   string               `json:"location"`
		Analysis   *model.StoryAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(meta), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid meta JSON"})
		return
	}
	if req.Title == "" || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "title and content are required"})
		return
	}

	memoryDate := time.Now()
	if req.MemoryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.MemoryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "memoryDate must be YYYY-MM-DD"})
			return
		}
		memoryDate = parsed
	}

	uploads, err := h.readImages(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	input := service.CreateMemoryInput{
		Title:      req.Title,
		Content:    req.Content,
		MemoryDate: memoryDate,
		Location:   req.Location,
		Analysis:   req.Analysis,
		Images:     uploads,
	}

	memory, err := h.memoryService.Create(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		if errors.Is(err, service.ErrTooManyImages) {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
			return
		}
		if errors.Is(err, service.ErrAnalysisFailed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "message": "analysis failed, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to create memory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": memory})
}

// readImages 读取 multipart 表单中的全部图片文件。
func (h *MemoryHandler) readImages(c *gin.Context) ([]service.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// 无表单文件属于合法情况，纯文字回忆
		return nil, nil
	}

	files := form.File["images"]
	uploads := make([]service.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("failed to open uploaded file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("failed to read uploaded file")
		}
		uploads = append(uploads, service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// List 分页查询当前用户的回忆。
// GET /api/memories?page=&size=&moodTag=&themeTag=&startDate=&endDate=&sortBy=&sortOrder=
func (h *MemoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	filter := repository.MemoryFilter{
		MoodTag:   c.Query("moodTag"),
		ThemeTag:  c.Query("themeTag"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if v := c.Query("startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := c.Query("endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = &t
		}
	}

	memories, total, err := h.memoryService.FindAll(c.Request.Context(), middleware.CurrentUserID(c), filter, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to list memories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"items": memories,
			"total": total,
			"page":  page,
			"size":  size,
		},
	})
}

// Get 查询单条回忆详情（含视觉样式）。
// GET /api/memories/:id
func (h *MemoryHandler) Get(c *gin.Context) {
	memoryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid memory id"})
		return
	}

	view, err := h.memoryService.FindOne(c.Request.Context(), middleware.CurrentUserID(c), uint(memoryID))
	if err != nil {
		if errors.Is(err, service.ErrMemoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to get memory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": view})
}

// Delete 删除一条回忆。
// DELETE /api/memories/:id
func (h *MemoryHandler) Delete(c *gin.Context) {
	memoryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid memory id"})
		return
	}

	if err := h.memoryService.Delete(c.Request.Context(), middleware.CurrentUserID(c), uint(memoryID)); err != nil {
		if errors.Is(err, service.ErrMemoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to delete memory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}

// Search 在当前用户的回忆里做关键词全文检索。
// GET /api/memories/search?q=&page=&size=
func (h *MemoryHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	result, err := h.searchService.Search(c.Request.Context(), middleware.CurrentUserID(c), c.Query("q"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}
