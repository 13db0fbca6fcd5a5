package model

// 采访会话的阶段，只允许 context → interviewing → complete 线性推进，
// 以及用户显式从 complete 回到 interviewing。
const (
	StepContext      = "context"
	StepInterviewing = "interviewing"
	StepComplete     = "complete"
)

// ConversationMessage 代表会话中的单条消息，按插入顺序保存，追加后不可变。
type ConversationMessage struct {
	Role    string `json:"role"` // "user" 或 "assistant"
	Content string `json:"content"`
}

// InterviewProgress 是采访进度指标，仅用于进度反馈，不驱动终止判断。
type InterviewProgress struct {
	QuestionsAnswered int     `json:"questionsAnswered"`
	TotalQuestions    int     `json:"totalQuestions"`
	NarrativeDepth    float64 `json:"narrativeDepth"` // 0-100
}

// InterviewSession 是一次采访会话的完整状态。它是一个可序列化的值，
// 由会话仓库按 sessionId 存取，而不是进程内的全局可变状态。
type InterviewSession struct {
	ID                   string                `json:"id"`
	UserID               uint                  `json:"userId"`
	Step                 string                `json:"step"`
	InitialContext       string                `json:"initialContext"`
	ConversationHistory  []ConversationMessage `json:"conversationHistory"`
	Questions            []string              `json:"questions"`
	CurrentQuestionIndex int                   `json:"currentQuestionIndex"`
	InitialGreeting      string                `json:"initialGreeting"`
	// 初始问题批的大小，会话开始后冻结
	InitialQuestionCount int               `json:"initialQuestionCount"`
	IsDeepInterview      bool              `json:"isDeepInterview"`
	Progress             InterviewProgress `json:"progress"`
	StoryAnalysis        *StoryAnalysis    `json:"storyAnalysis,omitempty"`
}

// AddMessage 追加一条消息。用户消息会使 questionsAnswered 恰好加一，
// 叙事深度由调用方在追加后重新计算。
func (s *InterviewSession) AddMessage(role, content string) {
	s.ConversationHistory = append(s.ConversationHistory, ConversationMessage{Role: role, Content: content})
	if role == "user" {
		s.Progress.QuestionsAnswered++
	}
}

// AddFollowUpQuestions 追加模型建议的后续问题并进入深度采访模式。
func (s *InterviewSession) AddFollowUpQuestions(questions []string) {
	if len(questions) == 0 {
		return
	}
	s.Questions = append(s.Questions, questions...)
	s.IsDeepInterview = true
	s.Progress.TotalQuestions += len(questions)
}

// NextQuestion 将当前问题下标前移一位，夹取到最后一个下标。
func (s *InterviewSession) NextQuestion() {
	if s.CurrentQuestionIndex < len(s.Questions)-1 {
		s.CurrentQuestionIndex++
	}
}

// UserMessages 按顺序返回所有用户消息。
func (s *InterviewSession) UserMessages() []ConversationMessage {
	var msgs []ConversationMessage
	for _, m := range s.ConversationHistory {
		if m.Role == "user" {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
