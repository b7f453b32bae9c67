package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/transport/http/middleware"
	"studybuddy/internal/transport/http/response"
)

type StudyService interface {
	Summarize(ctx context.Context, input app.SummarizeInput) (*app.QueryResult, error)
	Ask(ctx context.Context, input app.AskInput) (*app.QueryResult, error)
	GenerateQuiz(ctx context.Context, input app.QuizInput) (*app.QueryResult, error)
	GeneratePracticeExam(ctx context.Context, input app.ExamInput) (*app.QueryResult, error)
}

type StudyHandler struct {
	study StudyService
}

type SummarizeRequest struct {
	CourseName string `json:"course_name" binding:"required"`
	WeekNumber *int   `json:"week_number" binding:"required,gte=1"`
}

type AskRequest struct {
	Question   string `json:"question" binding:"required"`
	CourseName string `json:"course_name"`
	WeekNumber *int   `json:"week_number" binding:"omitempty,gte=1"`
}

type QuizRequest struct {
	CourseName    string   `json:"course_name" binding:"required"`
	WeekNumber    *int     `json:"week_number" binding:"required,gte=1"`
	QuestionTypes []string `json:"question_types"`
	NumQuestions  int      `json:"num_questions"`
}

type ExamRequest struct {
	CourseName   string `json:"course_name" binding:"required"`
	Weeks        []int  `json:"weeks"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

func NewStudyHandler(study StudyService) *StudyHandler {
	return &StudyHandler{study: study}
}

func (h *StudyHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.study.Summarize(c.Request.Context(), app.SummarizeInput{
		CourseName: req.CourseName,
		WeekNumber: req.WeekNumber,
	})
	if err != nil {
		writeError(c, err, "summarize failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) Ask(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.study.Ask(c.Request.Context(), app.AskInput{
		SessionID:  sessionID,
		Question:   req.Question,
		CourseName: req.CourseName,
		WeekNumber: req.WeekNumber,
	})
	if err != nil {
		writeError(c, err, "ask failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) Quiz(c *gin.Context) {
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.study.GenerateQuiz(c.Request.Context(), app.QuizInput{
		CourseName:    req.CourseName,
		WeekNumber:    req.WeekNumber,
		QuestionTypes: req.QuestionTypes,
		NumQuestions:  req.NumQuestions,
	})
	if err != nil {
		writeError(c, err, "generate quiz failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) Exam(c *gin.Context) {
	var req ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.study.GeneratePracticeExam(c.Request.Context(), app.ExamInput{
		CourseName:   req.CourseName,
		Weeks:        req.Weeks,
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		writeError(c, err, "generate exam failed")
		return
	}
	response.OK(c, result)
}
