package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"yedam-go/internal/middleware"
	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/internal/service"
	"yedam-go/pkg/llm"
	"yedam-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ChatHandler 通过 WebSocket 提供采访对话通道，
// 客户端逐条发送回答，服务端实时推送 AI 回应与进度。
type ChatHandler struct {
	interviewService service.InterviewService
	upgrader         websocket.Upgrader
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(interviewService service.InterviewService) *ChatHandler {
	return &ChatHandler{
		interviewService: interviewService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 跨域校验交给网关层
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// inboundFrame 是客户端发来的消息帧。
type inboundFrame struct {
	Type    string `json:"type"` // message 或 finish
	Message string `json:"message"`
}

// outboundFrame 是服务端推送的消息帧。
type outboundFrame struct {
	Type                   string                   `json:"type"` // reply / analysis / error
	Response               string                   `json:"response,omitempty"`
	SuggestedNextQuestions []string                 `json:"suggestedNextQuestions,omitempty"`
	ShouldContinue         *bool                    `json:"shouldContinue,omitempty"`
	Progress               *model.InterviewProgress `json:"progress,omitempty"`
	Analysis               *model.StoryAnalysis     `json:"analysis,omitempty"`
	Error                  string                   `json:"error,omitempty"`
	Timestamp              model.LocalTime          `json:"timestamp"`
}

// Serve 升级连接并进入采访消息循环。
// GET /api/ai/interview/:sessionId/ws
func (h *ChatHandler) Serve(c *gin.Context) {
	sessionID := c.Param("sessionId")

	session, err := h.interviewService.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "internal server error"})
		return
	}
	if session.UserID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("[Chat] websocket connected, session: %s", sessionID)
	ctx := c.Request.Context()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[Chat] websocket read error, session: %s, error: %v", sessionID, err)
			}
			return
		}

		switch frame.Type {
		case "message":
			h.handleMessage(ctx, conn, sessionID, frame.Message)
		case "finish":
			h.handleFinish(ctx, conn, sessionID)
		default:
			h.writeError(conn, "unknown frame type")
		}
	}
}

func (h *ChatHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID, text string) {
	if text == "" {
		h.writeError(conn, "message must not be empty")
		return
	}

	result, err := h.interviewService.SubmitMessage(ctx, sessionID, text)
	if err != nil {
		h.writeError(conn, interviewErrorMessage(err))
		return
	}

	shouldContinue := result.ShouldContinue
	h.write(conn, outboundFrame{
		Type:                   "reply",
		Response:               result.Response,
		SuggestedNextQuestions: result.SuggestedNextQuestions,
		ShouldContinue:         &shouldContinue,
		Progress:               &result.Progress,
	})
}

func (h *ChatHandler) handleFinish(ctx context.Context, conn *websocket.Conn, sessionID string) {
	analysis, err := h.interviewService.Finish(ctx, sessionID)
	if err != nil {
		h.writeError(conn, interviewErrorMessage(err))
		return
	}
	h.write(conn, outboundFrame{
		Type:     "analysis",
		Analysis: analysis,
	})
}

func (h *ChatHandler) write(conn *websocket.Conn, frame outboundFrame) {
	frame.Timestamp = model.LocalTime(time.Now())
	if err := conn.WriteJSON(frame); err != nil {
		log.Warnf("[Chat] websocket write failed: %v", err)
	}
}

func (h *ChatHandler) writeError(conn *websocket.Conn, message string) {
	h.write(conn, outboundFrame{Type: "error", Error: message})
}

// interviewErrorMessage 把服务层错误转换为推送给客户端的文案。
func interviewErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, llm.ErrModelUnavailable):
		return "AI model is temporarily unavailable"
	case errors.Is(err, service.ErrAnalysisFailed):
		return "analysis failed, please retry"
	default:
		return "internal server error"
	}
}
