package analyze

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"food-analyzer-go/internal/domain/analysis"
	"food-analyzer-go/internal/domain/nutrition"
	"food-analyzer-go/internal/platform/errors"
	httptransport "food-analyzer-go/internal/transport/http"
	"food-analyzer-go/internal/utils"
)

const (
	formField = "file"

	emptyReplyDetail = "Error processing AI response"
	timeoutDetail    = "Error analyzing food: model request timed out"
	// multipart framing allowance on top of the image size limit
	multipartOverhead = 64 << 10
)

// Service is the HTTP front of the analysis service.
type Service struct {
	analysis           *analysis.Service
	logger             *utils.Logger
	invalidImageStatus int
	maxUploadBytes     int64
}

type Options struct {
	Analysis *analysis.Service
	Logger   *utils.Logger
	// InvalidImageStatus is 500 or 400.
	InvalidImageStatus int
	MaxUploadBytes     int64
}

func NewService(opts Options) (*Service, error) {
	if opts.Analysis == nil {
		return nil, errors.New(errors.KindConfig, "analyze.new", "analysis service is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}
	status := opts.InvalidImageStatus
	if status != http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return &Service{
		analysis:           opts.Analysis,
		logger:             opts.Logger,
		invalidImageStatus: status,
		maxUploadBytes:     opts.MaxUploadBytes,
	}, nil
}

// Register mounts /analyze-food and /health at the engine root.
func (s *Service) Register(_ context.Context, router gin.IRoutes) error {
	router.POST("/analyze-food", s.handleAnalyze)
	router.GET("/health", s.handleHealth)
	s.logger.InfoTag("HTTP", "analysis routes registered")
	return nil
}

// handleAnalyze runs one uploaded image through the analysis service.
// @Summary Analyze a food image
// @Description Accepts a multipart image upload and returns estimated nutrition facts
// @Tags Analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Food image"
// @Success 200 {object} nutrition.Envelope
// @Failure 400 {object} httptransport.ErrorBody
// @Failure 500 {object} httptransport.ErrorBody
// @Failure 504 {object} httptransport.ErrorBody
// @Router /analyze-food [post]
func (s *Service) handleAnalyze(c *gin.Context) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile(formField)
	if err != nil && tooLarge(err) {
		s.logger.WarnTag("HTTP", "upload exceeds %d bytes request_id=%s", s.maxUploadBytes, httptransport.RequestID(c))
		httptransport.RespondDetail(c, s.invalidImageStatus,
			fmt.Sprintf("Error analyzing food: image exceeds maximum size of %d bytes", s.maxUploadBytes))
		return
	}
	if err != nil {
		s.logger.WarnTag("HTTP", "upload without usable file field: %v request_id=%s", err, httptransport.RequestID(c))
		httptransport.RespondDetail(c, http.StatusBadRequest, analysis.InvalidContentTypeMessage)
		return
	}

	file, err := header.Open()
	if err != nil {
		httptransport.RespondDetail(c, http.StatusInternalServerError, fmt.Sprintf("Error analyzing food: %v", err))
		return
	}
	defer file.Close()

	result, err := s.analysis.Analyze(c.Request.Context(), analysis.Upload{
		Reader:      file,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		RequestID:   httptransport.RequestID(c),
	})
	if err != nil {
		_ = c.Error(err)
		status, detail := s.classify(err)
		httptransport.RespondDetail(c, status, detail)
		return
	}

	c.JSON(http.StatusOK, nutrition.Envelope{Results: []nutrition.Result{result}})
}

// handleHealth reports liveness.
// @Summary Health check
// @Tags Analysis
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// classify maps a service error onto a status code and detail message.
func (s *Service) classify(err error) (int, string) {
	switch errors.KindOf(err) {
	case errors.KindInvalidRequest:
		return http.StatusBadRequest, analysis.InvalidContentTypeMessage
	case errors.KindInvalidImage:
		return s.invalidImageStatus, analysisDetail(err)
	case errors.KindTimeout:
		return http.StatusGatewayTimeout, timeoutDetail
	case errors.KindAIResponse:
		if stderrors.Is(err, nutrition.ErrEmptyReply) {
			return http.StatusInternalServerError, emptyReplyDetail
		}
		return http.StatusInternalServerError, analysisDetail(err)
	default:
		return http.StatusInternalServerError, analysisDetail(err)
	}
}

func analysisDetail(err error) string {
	return "Error analyzing food: " + describe(err)
}

// describe renders a typed error without its kind and op prefix.
func describe(err error) string {
	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		return err.Error()
	}
	if typed.Cause == nil {
		return typed.Message
	}
	return fmt.Sprintf("%s: %v", typed.Message, typed.Cause)
}

// tooLarge reports whether the multipart parse stopped at the body cap.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return true
	}
	// older multipart readers flatten the cause into the message
	return strings.Contains(err.Error(), "request body too large")
}
