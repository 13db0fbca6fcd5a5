// Package handler 实现了所有 HTTP 接口的 Gin handler。
package handler

import (
	"errors"
	"net/http"

	"yedam-go/internal/middleware"
	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/internal/service"
	"yedam-go/internal/style"
	"yedam-go/pkg/llm"

	"github.com/gin-gonic/gin"
)

// AIHandler 处理采访会话与内容分析相关的接口。
type AIHandler struct {
	interviewService service.InterviewService
	analyzerService  service.AnalyzerService
}

// NewAIHandler 创建一个新的 AIHandler 实例。
func NewAIHandler(interviewService service.InterviewService, analyzerService service.AnalyzerService) *AIHandler {
	return &AIHandler{
		interviewService: interviewService,
		analyzerService:  analyzerService,
	}
}

// StartInterview 开始一场新的采访会话。
// POST /api/ai/interview/start
func (h *AIHandler) StartInterview(c *gin.Context) {
	var req struct {
		InitialContext string `json:"initialContext"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid request body"})
		return
	}

	userID := middleware.CurrentUserID(c)
	session, err := h.interviewService.Start(c.Request.Context(), userID, req.InitialContext)
	if err != nil {
		h.renderInterviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"sessionId":       session.ID,
			"initialGreeting": session.InitialGreeting,
			"questions":       session.Questions,
			"step":            session.Step,
			"progress":        session.Progress,
		},
	})
}

// Chat 提交一轮用户回答。
// POST /api/ai/interview/:sessionId/chat
func (h *AIHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "message is required"})
		return
	}

	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if session.Step != model.StepInterviewing {
		c.JSON(http.StatusConflict, gin.H{"code": 409, "message": "interview is not in progress"})
		return
	}

	result, err := h.interviewService.SubmitMessage(c.Request.Context(), session.ID, req.Message)
	if err != nil {
		h.renderInterviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}

// FinishInterview 结束采访并生成最终分析。
// POST /api/ai/interview/:sessionId/finish
func (h *AIHandler) FinishInterview(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	analysis, err := h.interviewService.Finish(c.Request.Context(), session.ID)
	if err != nil {
		h.renderInterviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"analysis": analysis,
			"style":    style.Generate(*analysis),
		},
	})
}

// ReopenInterview 将已完成的会话重新打开以补充对话。
// POST /api/ai/interview/:sessionId/reopen
func (h *AIHandler) ReopenInterview(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	reopened, err := h.interviewService.Reopen(c.Request.Context(), session.ID)
	if err != nil {
		h.renderInterviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"sessionId": reopened.ID,
			"step":      reopened.Step,
			"progress":  reopened.Progress,
		},
	})
}

// ResetInterview 丢弃会话状态。
// DELETE /api/ai/interview/:sessionId
func (h *AIHandler) ResetInterview(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	if err := h.interviewService.Reset(c.Request.Context(), session.ID); err != nil {
		h.renderInterviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}

// GetInterview 查询会话当前状态。
// GET /api/ai/interview/:sessionId
func (h *AIHandler) GetInterview(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": session})
}

// AnalyzeContent 对一段自由文本做独立的内容分析。
// POST /api/ai/analyze
func (h *AIHandler) AnalyzeContent(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "content is required"})
		return
	}

	analysis, err := h.analyzerService.Analyze(c.Request.Context(), req.Content)
	if err != nil {
		h.renderInterviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"analysis": analysis,
			"style":    style.Generate(*analysis),
		},
	})
}

// ownedSession 加载路径中的会话并校验归属，失败时直接写响应。
func (h *AIHandler) ownedSession(c *gin.Context) (*model.InterviewSession, bool) {
	sessionID := c.Param("sessionId")
	session, err := h.interviewService.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "session not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "internal server error"})
		}
		return nil, false
	}
	if session.UserID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "session not found"})
		return nil, false
	}
	return session, true
}

// renderInterviewError 把服务层错误映射为 HTTP 响应。
func (h *AIHandler) renderInterviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "session not found"})
	case errors.Is(err, llm.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "message": "AI model is temporarily unavailable"})
	case errors.Is(err, service.ErrAnalysisFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "message": "analysis failed, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "internal server error"})
	}
}
