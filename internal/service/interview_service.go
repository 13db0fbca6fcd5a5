package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/pkg/aiparse"
	"yedam-go/pkg/llm"
	"yedam-go/pkg/log"
)

const interviewChatSystemPrompt = `당신은 사용자의 추억을 복원하도록 돕는 공감적인 AI 인터뷰어입니다.
사용자의 응답을 듣고:
1. 공감하며 더 깊은 이야기를 이끌어내세요
2. 필요하다면 후속 질문을 1-2개 제안하세요
3. 충분한 정보가 모였다면 대화를 마무리하세요

다음 형식의 JSON으로 응답하세요:

{
  "response": "사용자에게 전달할 공감적인 응답",
  "suggestedNextQuestions": ["후속 질문1", "후속 질문2"],
  "shouldContinue": true 또는 false (충분한 정보가 모였으면 false)
}`

const defaultChatResponse = "더 자세히 말씀해주시겠어요?"

const defaultGreeting = "안녕하세요! 업로드하신 사진들에 담긴 이야기를 함께 나눠볼까요?"

// 模型不可用以外的任何解析失败都回退到这组通用开放式问题。
var defaultQuestions = []string{
	"이 순간에 어떤 감정을 느꼈나요?",
	"함께 있던 사람들과는 어떤 관계인가요?",
	"이 추억이 특별한 이유는 무엇인가요?",
	"어떤 상황이었나요?",
	"이 기억이 오래 남는 이유는 무엇인가요?",
}

// ChatTurnResult 是一轮采访对话的返回值。
// ShouldContinue 为 false 表示模型判断素材已足够，但状态转移由调用方决定。
type ChatTurnResult struct {
	Response               string                  `json:"response"`
	SuggestedNextQuestions []string                `json:"suggestedNextQuestions"`
	ShouldContinue         bool                    `json:"shouldContinue"`
	Progress               model.InterviewProgress `json:"progress"`
}

// InterviewService 定义了 AI 采访会话状态机的操作接口。
type InterviewService interface {
	Start(ctx context.Context, userID uint, initialContext string) (*model.InterviewSession, error)
	SubmitMessage(ctx context.Context, sessionID, text string) (*ChatTurnResult, error)
	Finish(ctx context.Context, sessionID string) (*model.StoryAnalysis, error)
	Reopen(ctx context.Context, sessionID string) (*model.InterviewSession, error)
	Reset(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*model.InterviewSession, error)
}

type interviewService struct {
	llmClient   llm.Client
	analyzer    AnalyzerService
	sessionRepo repository.SessionRepository
	// 按 sessionId 串行化并发的消息提交，保证 questionsAnswered 与历史追加顺序
	sessionLocks *sessionLockRegistry
}

// NewInterviewService 创建一个新的 InterviewService 实例。
func NewInterviewService(llmClient llm.Client, analyzer AnalyzerService, sessionRepo repository.SessionRepository) InterviewService {
	return &interviewService{
		llmClient:    llmClient,
		analyzer:     analyzer,
		sessionRepo:  sessionRepo,
		sessionLocks: newSessionLockRegistry(),
	}
}

func (s *interviewService) lockSession(sessionID string) func() {
	return s.sessionLocks.lock(sessionID)
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

// sessionLockRegistry 按 sessionId 管理互斥锁。引用计数在注册表锁内更新：
// 同一会话的并发操作永远竞争同一把锁（包括 Reset 期间到达的提交），
// 最后一个持有者释放时条目即时回收，注册表不随会话数无界增长。
type sessionLockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sessionLockEntry
}

func newSessionLockRegistry() *sessionLockRegistry {
	return &sessionLockRegistry{locks: make(map[string]*sessionLockEntry)}
}

// lock 阻塞获取 sessionID 对应的锁，返回释放函数。
func (r *sessionLockRegistry) lock(sessionID string) func() {
	r.mu.Lock()
	entry, ok := r.locks[sessionID]
	if !ok {
		entry = &sessionLockEntry{}
		r.locks[sessionID] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		r.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(r.locks, sessionID)
		}
		r.mu.Unlock()
	}
}

// Start 开始一场采访：向模型请求一批开放式问题和问候语，建立会话并进入 interviewing。
// 模型不可用时直接报错（不得凭空编造问题误导用户）；回复可解析失败时用通用问题兜底。
func (s *interviewService) Start(ctx context.Context, userID uint, initialContext string) (*model.InterviewSession, error) {
	var sb strings.Builder
	sb.WriteString("당신은 추억을 복원하도록 돕는 AI 인터뷰어입니다. 사용자가 업로드한 사진들에 대해 이야기를 나누려고 합니다.\n\n")
	if initialContext != "" {
		sb.WriteString(fmt.Sprintf("사용자 초기 입력: %s\n\n", initialContext))
	}
	sb.WriteString(`다음 형식의 JSON으로만 응답하세요:

{
  "questions": ["질문1", "질문2", "질문3", "질문4", "질문5"],
  "initialGreeting": "따뜻하고 친근한 첫 인사말"
}

규칙:
- questions는 5개의 개방형 질문 (예: "이 순간에 어떤 감정을 느꼈나요?", "함께 있던 사람들과는 어떤 관계인가요?")
- initialGreeting은 따뜻하고 공감적인 톤으로 작성
- 질문은 구체적이고 감성적이어야 하며, 사용자가 깊이 생각하도록 유도
- 순차적으로 물어볼 질문들을 생성 (한 번에 모두 물어보지 않음)`)

	reply, err := s.llmClient.Complete(ctx, []llm.Message{{Role: "user", Content: sb.String()}}, nil)
	if err != nil {
		log.Errorf("[Interview] 采访启动调用失败: %v", err)
		return nil, err
	}

	questions, greeting := parseInterviewStart(reply)

	session := &model.InterviewSession{
		ID:                   fmt.Sprintf("%d-%d", time.Now().UnixNano(), userID),
		UserID:               userID,
		Step:                 model.StepInterviewing,
		InitialContext:       initialContext,
		Questions:            questions,
		InitialGreeting:      greeting,
		InitialQuestionCount: len(questions),
		IsDeepInterview:      false,
		Progress: model.InterviewProgress{
			TotalQuestions: len(questions),
		},
	}
	// 问候语作为第一条 assistant 消息进入历史
	session.AddMessage("assistant", greeting)

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("[Interview] 会话已创建: %s, 初始问题 %d 个", session.ID, len(questions))
	return session, nil
}

// SubmitMessage 处理一轮用户回答：追加用户消息、更新进度、调用模型取得共情回应，
// 并把模型建议的后续问题追加进问题队列。状态不在这里转移，由调用方决定何时 Finish。
func (s *interviewService) SubmitMessage(ctx context.Context, sessionID, text string) (*ChatTurnResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.AddMessage("user", text)
	session.Progress.NarrativeDepth = narrativeDepth(session)

	messages := make([]llm.Message, 0, len(session.ConversationHistory)+1)
	messages = append(messages, llm.Message{Role: "system", Content: interviewChatSystemPrompt})
	for _, m := range session.ConversationHistory {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.llmClient.Complete(ctx, messages, nil)
	if err != nil {
		log.Errorf("[Interview] 对话调用失败, session: %s, error: %v", sessionID, err)
		return nil, err
	}

	result := parseChatTurn(reply)
	session.AddMessage("assistant", result.Response)
	if result.ShouldContinue && len(result.SuggestedNextQuestions) > 0 {
		session.AddFollowUpQuestions(result.SuggestedNextQuestions)
	}
	session.NextQuestion()

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	result.Progress = session.Progress
	return result, nil
}

// Finish 请求最终分析并把会话转入 complete。
// 分析失败时会话保持 interviewing 原状，调用方可重试。
func (s *interviewService) Finish(ctx context.Context, sessionID string) (*model.StoryAnalysis, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeConversation(ctx, session.ConversationHistory)
	if err != nil {
		return nil, err
	}

	session.StoryAnalysis = analysis
	session.Step = model.StepComplete
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("[Interview] 会话已完成: %s", sessionID)
	return analysis, nil
}

// Reopen 由用户显式从 complete 回到 interviewing，历史全部保留。
func (s *interviewService) Reopen(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Step = model.StepInterviewing
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Reset 丢弃会话全部状态，用于放弃采访或重新开始。
// 锁条目由注册表在全部持有者释放后回收，删除期间到达的提交仍排队在同一把锁上。
func (s *interviewService) Reset(ctx context.Context, sessionID string) error {
	unlock := s.lockSession(sessionID)
	defer unlock()
	return s.sessionRepo.Delete(ctx, sessionID)
}

// Get 返回会话当前状态。
func (s *interviewService) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	return s.sessionRepo.Find(ctx, sessionID)
}

// narrativeDepth 计算 0-100 的叙事深度得分，每项独立封顶：
//   - 问题覆盖（权重 50）：已答题数/初始题数
//   - 追加题奖励（最多 10）：超出初始批的每题 +5
//   - 回答丰富度（权重 30）：用户消息平均长度/200
//   - 对话轮次（权重 20）：总消息数/10
//
// 该得分只用于进度反馈，永远不会自行终止采访。
func narrativeDepth(session *model.InterviewSession) float64 {
	if len(session.ConversationHistory) == 0 {
		return 0
	}

	answered := session.Progress.QuestionsAnswered
	baseCount := session.InitialQuestionCount
	if baseCount == 0 {
		baseCount = session.Progress.TotalQuestions
	}

	var questionScore float64
	if baseCount > 0 {
		effective := answered
		if effective > baseCount {
			effective = baseCount
		}
		questionScore = float64(effective) / float64(baseCount) * 50
	}

	bonus := float64(answered-baseCount) * 5
	if bonus < 0 {
		bonus = 0
	}
	if bonus > 10 {
		bonus = 10
	}

	userMsgs := session.UserMessages()
	if len(userMsgs) == 0 {
		return questionScore
	}
	totalLen := 0
	for _, m := range userMsgs {
		totalLen += len([]rune(m.Content))
	}
	avgLen := float64(totalLen) / float64(len(userMsgs))
	lengthScore := avgLen / 200 * 30
	if lengthScore > 30 {
		lengthScore = 30
	}

	turnScore := float64(len(session.ConversationHistory)) / 10 * 20
	if turnScore > 20 {
		turnScore = 20
	}

	score := questionScore + bonus + lengthScore + turnScore
	if score > 100 {
		score = 100
	}
	return score
}

// parseInterviewStart 解析启动回复。提取不到 JSON、或问题列表为空时回退到通用问题集。
func parseInterviewStart(reply string) (questions []string, greeting string) {
	obj, ok := aiparse.ExtractObject(reply)
	if !ok {
		log.Warnf("[Interview] 启动回复中未找到可解析的 JSON，使用默认问题集")
		return append([]string{}, defaultQuestions...), defaultGreeting
	}
	questions = aiparse.StringSlice(obj, "questions")
	if len(questions) == 0 {
		questions = append([]string{}, defaultQuestions...)
	}
	greeting = aiparse.String(obj, "initialGreeting", defaultGreeting)
	return questions, greeting
}

// parseChatTurn 解析对话回复。shouldContinue 只有字面 false 才停止。
func parseChatTurn(reply string) *ChatTurnResult {
	obj, ok := aiparse.ExtractObject(reply)
	if !ok {
		log.Warnf("[Interview] 对话回复中未找到可解析的 JSON，使用默认回应")
		return &ChatTurnResult{
			Response:               defaultChatResponse,
			SuggestedNextQuestions: []string{},
			ShouldContinue:         true,
		}
	}
	return &ChatTurnResult{
		Response:               aiparse.String(obj, "response", defaultChatResponse),
		SuggestedNextQuestions: aiparse.StringSlice(obj, "suggestedNextQuestions"),
		ShouldContinue:         aiparse.BoolDefaultTrue(obj, "shouldContinue"),
	}
}
