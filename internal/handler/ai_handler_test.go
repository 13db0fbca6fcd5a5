package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/internal/service"
	"yedam-go/pkg/llm"

	"github.com/gin-gonic/gin"
)

// fakeInterviewService 返回预设结果，记录调用参数。
type fakeInterviewService struct {
	session    *model.InterviewSession
	chatResult *service.ChatTurnResult
	analysis   *model.StoryAnalysis
	err        error
}

func (f *fakeInterviewService) Start(ctx context.Context, userID uint, initialContext string) (*model.InterviewSession, error) {
	return f.session, f.err
}

func (f *fakeInterviewService) SubmitMessage(ctx context.Context, sessionID, text string) (*service.ChatTurnResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chatResult, nil
}

func (f *fakeInterviewService) Finish(ctx context.Context, sessionID string) (*model.StoryAnalysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeInterviewService) Reopen(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	return f.session, f.err
}

func (f *fakeInterviewService) Reset(ctx context.Context, sessionID string) error {
	return f.err
}

func (f *fakeInterviewService) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	if f.session == nil {
		return nil, repository.ErrSessionNotFound
	}
	return f.session, nil
}

// newTestRouter 注册路由并注入固定的用户身份。
func newTestRouter(h *AIHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Next()
	})
	router.POST("/api/ai/interview/start", h.StartInterview)
	router.POST("/api/ai/interview/:sessionId/chat", h.Chat)
	router.POST("/api/ai/interview/:sessionId/finish", h.FinishInterview)
	return router
}

func TestStartInterview_ReturnsSessionPayload(t *testing.T) {
	svc := &fakeInterviewService{
		session: &model.InterviewSession{
			ID:              "s1",
			UserID:          1,
			Step:            model.StepInterviewing,
			Questions:       []string{"Q1", "Q2", "Q3"},
			InitialGreeting: "환영합니다!",
			Progress:        model.InterviewProgress{TotalQuestions: 3},
		},
	}
	h := NewAIHandler(svc, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/start", strings.NewReader(`{"initialContext":"제주도 여행"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			SessionID string   `json:"sessionId"`
			Questions []string `json:"questions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.SessionID != "s1" {
		t.Errorf("expected sessionId s1, got %s", resp.Data.SessionID)
	}
	if len(resp.Data.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(resp.Data.Questions))
	}
}

func TestStartInterview_ModelOutageReturns503(t *testing.T) {
	svc := &fakeInterviewService{err: fmt.Errorf("%w: timeout", llm.ErrModelUnavailable)}
	h := NewAIHandler(svc, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/start", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestChat_UnknownSessionReturns404(t *testing.T) {
	h := NewAIHandler(&fakeInterviewService{}, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/nope/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestChat_CompletedSessionReturns409(t *testing.T) {
	svc := &fakeInterviewService{
		session: &model.InterviewSession{ID: "s1", UserID: 1, Step: model.StepComplete},
	}
	h := NewAIHandler(svc, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/s1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestChat_OtherUsersSessionHiddenAs404(t *testing.T) {
	svc := &fakeInterviewService{
		session: &model.InterviewSession{ID: "s1", UserID: 99, Step: model.StepInterviewing},
	}
	h := NewAIHandler(svc, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/s1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for someone else's session, got %d", w.Code)
	}
}

func TestFinishInterview_AnalysisFailureReturns503(t *testing.T) {
	svc := &fakeInterviewService{
		session: &model.InterviewSession{ID: "s1", UserID: 1, Step: model.StepInterviewing},
		err:     fmt.Errorf("%w: backend down", service.ErrAnalysisFailed),
	}
	h := NewAIHandler(svc, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/interview/s1/finish", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
