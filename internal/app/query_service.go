package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studybuddy/internal/ai"
	"studybuddy/internal/cache"
	"studybuddy/internal/model"
)

const (
	summaryTopK = 5
	askTopK     = 5
	quizTopK    = 10
	examTopK    = 15

	summaryMaxTokens = 700

	defaultMaxContextChars = 12000
	// TruncationMarker follows a context cut at the configured ceiling.
	TruncationMarker = "..."
)

const (
	QuestionMultipleChoice = "Multiple Choice"
	QuestionTrueFalse      = "True/False"
	QuestionShortAnswer    = "Short Answer"
)

var difficulties = []string{"Easy", "Medium", "Hard"}

// TranscriptTextLoader reads the full text of a stored transcript.
type TranscriptTextLoader interface {
	TranscriptText(ctx context.Context, record *model.TranscriptRecord) (string, error)
}

type QueryOptions struct {
	MaxContextChars int
	MaxHistory      int
}

type QueryService struct {
	transcripts TranscriptStore
	retriever   Retriever
	texts       TranscriptTextLoader
	llm         ChatCompleter
	chatConfig  ai.ChatConfig
	chatLog     ChatLog
	opts        QueryOptions
	logger      *zap.Logger
}

func NewQueryService(
	transcripts TranscriptStore,
	retriever Retriever,
	texts TranscriptTextLoader,
	llm ChatCompleter,
	chatConfig ai.ChatConfig,
	chatLog ChatLog,
	opts QueryOptions,
	logger *zap.Logger,
) *QueryService {
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = defaultMaxContextChars
	}
	if opts.MaxHistory < 0 {
		opts.MaxHistory = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		transcripts: transcripts,
		retriever:   retriever,
		texts:       texts,
		llm:         llm,
		chatConfig:  chatConfig,
		chatLog:     chatLog,
		opts:        opts,
		logger:      logger,
	}
}

// QueryResult is the outcome of a study operation. Text is the model's
// completion verbatim, or a user-facing notice when NoContent is set.
type QueryResult struct {
	Text         string   `json:"text"`
	Sources      []string `json:"sources"`
	NoContent    bool     `json:"no_content"`
	Partial      bool     `json:"partial"`
	UsedFallback bool     `json:"used_fallback"`
	ChunkCount   int      `json:"chunk_count"`
}

type SummarizeInput struct {
	CourseName string
	WeekNumber *int
}

func (s *QueryService) Summarize(ctx context.Context, input SummarizeInput) (*QueryResult, error) {
	course := strings.TrimSpace(input.CourseName)
	if course == "" || input.WeekNumber == nil {
		return nil, ErrInvalidInput
	}
	week := *input.WeekNumber
	cfg := s.chatConfig
	cfg.MaxTokens = summaryMaxTokens

	return s.run(ctx, queryPlan{
		filter:    model.TranscriptFilter{CourseName: course, Week: input.WeekNumber},
		topK:      summaryTopK,
		search:    summaryQuery(course, week),
		noContent: noTranscriptsMessage(course, input.WeekNumber, nil),
		chat:      cfg,
		messages: func(content string) []ai.ChatMessage {
			return []ai.ChatMessage{
				{Role: "system", Content: summarySystemPrompt},
				{Role: "user", Content: summaryPrompt(course, week, content)},
			}
		},
	})
}

type AskInput struct {
	SessionID  string
	Question   string
	CourseName string
	WeekNumber *int
}

// Ask answers from the filtered transcripts and records the exchange in the
// session's chat log. Nothing is recorded when retrieval or generation fails.
func (s *QueryService) Ask(ctx context.Context, input AskInput) (*QueryResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" || input.SessionID == "" {
		return nil, ErrInvalidInput
	}
	if s.chatLog == nil {
		return nil, ErrSessionNotFound
	}
	ok, err := s.chatLog.Exists(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	history, err := s.chatLog.Recent(ctx, input.SessionID, s.opts.MaxHistory)
	if err != nil {
		return nil, mapChatLogErr(err)
	}

	result, err := s.run(ctx, queryPlan{
		filter: model.TranscriptFilter{
			CourseName: strings.TrimSpace(input.CourseName),
			Week:       input.WeekNumber,
		},
		topK:      askTopK,
		search:    question,
		noContent: noInformationMessage,
		chat:      s.chatConfig,
		messages: func(content string) []ai.ChatMessage {
			msgs := make([]ai.ChatMessage, 0, len(history)+2)
			msgs = append(msgs, ai.ChatMessage{Role: "system", Content: askSystemPrompt})
			for _, h := range history {
				msgs = append(msgs, ai.ChatMessage{Role: h.Role, Content: h.Content})
			}
			msgs = append(msgs, ai.ChatMessage{Role: "user", Content: askPrompt(question, content)})
			return msgs
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.chatLog.Append(ctx, input.SessionID,
		model.ChatMessage{Role: model.RoleUser, Content: question, CreatedAt: now},
		model.ChatMessage{Role: model.RoleAssistant, Content: result.Text, CreatedAt: now},
	); err != nil {
		return nil, mapChatLogErr(err)
	}
	return result, nil
}

type QuizInput struct {
	CourseName    string
	WeekNumber    *int
	QuestionTypes []string
	NumQuestions  int
}

func (s *QueryService) GenerateQuiz(ctx context.Context, input QuizInput) (*QueryResult, error) {
	course := strings.TrimSpace(input.CourseName)
	if course == "" || input.WeekNumber == nil {
		return nil, ErrInvalidInput
	}
	n := input.NumQuestions
	if n == 0 {
		n = 5
	}
	if n < 3 || n > 10 {
		return nil, fmt.Errorf("%w: num_questions must be between 3 and 10", ErrInvalidInput)
	}
	types, err := normalizeQuestionTypes(input.QuestionTypes)
	if err != nil {
		return nil, err
	}
	instructions := quizInstructions(course, *input.WeekNumber, n, types)

	return s.run(ctx, queryPlan{
		filter:    model.TranscriptFilter{CourseName: course, Week: input.WeekNumber},
		topK:      quizTopK,
		search:    instructions,
		noContent: noTranscriptsMessage(course, input.WeekNumber, nil),
		chat:      s.chatConfig,
		messages: func(content string) []ai.ChatMessage {
			return []ai.ChatMessage{
				{Role: "system", Content: studySystemPrompt},
				{Role: "user", Content: contextPrompt(content, instructions)},
			}
		},
	})
}

type ExamInput struct {
	CourseName   string
	Weeks        []int
	NumQuestions int
	Difficulty   string
}

func (s *QueryService) GeneratePracticeExam(ctx context.Context, input ExamInput) (*QueryResult, error) {
	course := strings.TrimSpace(input.CourseName)
	if course == "" {
		return nil, ErrInvalidInput
	}
	n := input.NumQuestions
	if n == 0 {
		n = 10
	}
	if n < 5 || n > 20 {
		return nil, fmt.Errorf("%w: num_questions must be between 5 and 20", ErrInvalidInput)
	}
	difficulty, err := normalizeDifficulty(input.Difficulty)
	if err != nil {
		return nil, err
	}
	weeks := dedupeWeeks(input.Weeks)
	for _, w := range weeks {
		if w < 1 {
			return nil, fmt.Errorf("%w: week numbers start at 1", ErrInvalidInput)
		}
	}
	instructions := examInstructions(course, weeks, n, difficulty)

	return s.run(ctx, queryPlan{
		filter:    model.TranscriptFilter{CourseName: course, Weeks: weeks},
		topK:      examTopK,
		search:    instructions,
		noContent: noTranscriptsMessage(course, nil, weeks),
		chat:      s.chatConfig,
		messages: func(content string) []ai.ChatMessage {
			return []ai.ChatMessage{
				{Role: "system", Content: studySystemPrompt},
				{Role: "user", Content: contextPrompt(content, instructions)},
			}
		},
	})
}

type queryPlan struct {
	filter    model.TranscriptFilter
	topK      int
	search    string
	noContent string
	chat      ai.ChatConfig
	messages  func(content string) []ai.ChatMessage
}

func (s *QueryService) run(ctx context.Context, plan queryPlan) (*QueryResult, error) {
	records, err := s.transcripts.List(ctx, plan.filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	if len(records) == 0 {
		return &QueryResult{Text: plan.noContent, NoContent: true, Sources: []string{}}, nil
	}

	result := &QueryResult{}
	content, err := s.gather(ctx, plan, records, result)
	if err != nil {
		return nil, err
	}
	if content == "" {
		result.Text = noTextMessage
		result.NoContent = true
		return result, nil
	}

	content, result.Partial = TruncateContext(content, s.opts.MaxContextChars)

	answer, err := s.llm.Complete(ctx, plan.chat, plan.messages(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	result.Text = answer
	return result, nil
}

// gather prefers indexed chunks and falls back to the transcripts' full text
// when the index returns nothing.
func (s *QueryService) gather(ctx context.Context, plan queryPlan, records []model.TranscriptRecord, result *QueryResult) (string, error) {
	var retrieveErr error
	if s.retriever != nil {
		chunks, err := s.retriever.Retrieve(ctx, plan.search, plan.filter, plan.topK)
		if err != nil {
			retrieveErr = err
			s.logger.Warn("vector retrieval failed, reading transcripts directly", zap.Error(err))
		}
		if len(chunks) > 0 {
			var b strings.Builder
			for i, c := range chunks {
				if i > 0 {
					b.WriteString("\n\n")
				}
				fmt.Fprintf(&b, "[%s]\n%s", c.TranscriptName, c.Text)
				result.Sources = appendUnique(result.Sources, c.TranscriptName)
			}
			result.ChunkCount = len(chunks)
			return b.String(), nil
		}
	}

	result.UsedFallback = true
	var b strings.Builder
	for i := range records {
		rec := &records[i]
		text, err := s.texts.TranscriptText(ctx, rec)
		if err != nil {
			s.logger.Warn("read transcript text failed",
				zap.String("transcript_id", rec.ID), zap.Error(err))
			continue
		}
		fmt.Fprintf(&b, "\n\n--- %s ---\n\n%s", rec.TranscriptName, text)
		result.Sources = appendUnique(result.Sources, rec.TranscriptName)
	}
	if b.Len() == 0 && retrieveErr != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrievalFailed, retrieveErr)
	}
	return b.String(), nil
}

// TruncateContext keeps the first limit runes of text and appends
// TruncationMarker when anything was cut.
func TruncateContext(text string, limit int) (string, bool) {
	if limit <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]) + TruncationMarker, true
}

func normalizeQuestionTypes(types []string) ([]string, error) {
	if len(types) == 0 {
		return []string{QuestionMultipleChoice, QuestionTrueFalse}, nil
	}
	allowed := []string{QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer}
	out := make([]string, 0, len(types))
	for _, t := range types {
		matched := ""
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(t), a) {
				matched = a
				break
			}
		}
		if matched == "" {
			return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidInput, t)
		}
		out = appendUnique(out, matched)
	}
	return out, nil
}

func normalizeDifficulty(d string) (string, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return "Medium", nil
	}
	for _, known := range difficulties {
		if strings.EqualFold(d, known) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", ErrInvalidInput)
}

func dedupeWeeks(weeks []int) []int {
	if len(weeks) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(weeks))
	out := make([]int, 0, len(weeks))
	for _, w := range weeks {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func mapChatLogErr(err error) error {
	if errors.Is(err, cache.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
