package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/bootstrap"
	"studybuddy/internal/transport/http/handler"
)

func newTestRouter(features bootstrap.Features) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Register(router.Group("/api/v1"), Routes{
		Transcripts: handler.NewTranscriptHandler(nil, nil, 1),
		Study:       handler.NewStudyHandler(nil),
		Sessions:    handler.NewSessionHandler(nil),
		JWTSecret:   "secret",
		Features:    features,
		Notices:     []string{"llm.api_key is not set"},
	})
	return router
}

func TestDisabledFeaturesAnswer503(t *testing.T) {
	router := newTestRouter(bootstrap.Features{})

	for _, route := range []struct{ method, path string }{
		{"POST", "/api/v1/summaries"},
		{"POST", "/api/v1/questions"},
		{"POST", "/api/v1/quizzes"},
		{"POST", "/api/v1/exams"},
		{"POST", "/api/v1/sessions"},
		{"GET", "/api/v1/sessions/history"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, strings.NewReader("{}")))
		require.Equal(t, 503, w.Code, route.path)

		var body struct {
			Code int `json:"code"`
			Data struct {
				Feature string   `json:"feature"`
				Notices []string `json:"notices"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 50300, body.Code)
		assert.NotEmpty(t, body.Data.Feature)
		assert.Equal(t, []string{"llm.api_key is not set"}, body.Data.Notices)
	}
}

func TestQuestionsNeedSessionToken(t *testing.T) {
	router := newTestRouter(bootstrap.Features{Query: true, Sessions: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/questions", strings.NewReader(`{"question":"hi"}`)))
	assert.Equal(t, 401, w.Code)
}
