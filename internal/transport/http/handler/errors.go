package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/transport/http/response"
)

// writeError maps service errors onto HTTP status and envelope codes.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrExtractFailed):
		response.Error(c, http.StatusBadRequest, response.CodeExtractFailed, err.Error())
	case errors.Is(err, app.ErrTranscriptNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrPersistFailed):
		response.Error(c, http.StatusInternalServerError, response.CodePersistFailed, err.Error())
	case errors.Is(err, app.ErrRetrievalFailed), errors.Is(err, app.ErrGenerationFailed):
		response.Error(c, http.StatusBadGateway, response.CodeBadGateway, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
