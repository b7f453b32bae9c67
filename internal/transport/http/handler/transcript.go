package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/model"
	"studybuddy/internal/platform/objectstore"
	"studybuddy/internal/transport/http/response"
)

type IngestService interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
	Download(ctx context.Context, transcriptID string) (*app.DownloadResult, error)
	StoredFiles(ctx context.Context) ([]objectstore.Entry, error)
}

type CatalogService interface {
	ListCourses(ctx context.Context) ([]string, error)
	ListWeeks(ctx context.Context, courseName string) ([]int, error)
	ListTranscripts(ctx context.Context, filter model.TranscriptFilter) ([]model.TranscriptRecord, error)
}

// multipartOverhead covers form fields and part headers on top of the file.
const multipartOverhead = 1 << 20

type TranscriptHandler struct {
	ingest         IngestService
	catalog        CatalogService
	maxUploadBytes int64
}

func NewTranscriptHandler(ingest IngestService, catalog CatalogService, maxUploadMB int) *TranscriptHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &TranscriptHandler{
		ingest:         ingest,
		catalog:        catalog,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Upload accepts multipart "file" plus course_name, week_number (optional)
// and transcript_name.
func (h *TranscriptHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(c)
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		h.tooLarge(c)
		return
	}

	week, err := parseOptionalWeek(c.PostForm("week_number"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid week_number")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), app.IngestInput{
		Data:           data,
		FileName:       file.Filename,
		CourseName:     c.PostForm("course_name"),
		WeekNumber:     week,
		TranscriptName: c.PostForm("transcript_name"),
	})
	if err != nil {
		writeError(c, err, "ingest failed")
		return
	}
	response.OK(c, result)
}

func (h *TranscriptHandler) tooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge,
		fmt.Sprintf("file too large (max %dMB)", h.maxUploadBytes>>20))
}

func (h *TranscriptHandler) List(c *gin.Context) {
	week, err := parseOptionalWeek(c.Query("week"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid week")
		return
	}
	records, err := h.catalog.ListTranscripts(c.Request.Context(), model.TranscriptFilter{
		CourseName: c.Query("course"),
		Week:       week,
	})
	if err != nil {
		writeError(c, err, "list transcripts failed")
		return
	}
	response.OK(c, records)
}

func (h *TranscriptHandler) Download(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid transcript id")
		return
	}
	file, err := h.ingest.Download(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "download failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// StoredFiles lists raw files in object storage, for checking that uploads
// landed in the bucket.
func (h *TranscriptHandler) StoredFiles(c *gin.Context) {
	entries, err := h.ingest.StoredFiles(c.Request.Context())
	if err != nil {
		writeError(c, err, "list stored files failed")
		return
	}
	response.OK(c, entries)
}

func (h *TranscriptHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		writeError(c, err, "list courses failed")
		return
	}
	response.OK(c, courses)
}

func (h *TranscriptHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.catalog.ListWeeks(c.Request.Context(), c.Param("course"))
	if err != nil {
		writeError(c, err, "list weeks failed")
		return
	}
	response.OK(c, weeks)
}

func parseOptionalWeek(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	week, err := strconv.Atoi(raw)
	if err != nil || week < 1 {
		return nil, fmt.Errorf("invalid week %q", raw)
	}
	return &week, nil
}
