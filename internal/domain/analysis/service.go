package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"food-analyzer-go/internal/core/providers/vision"
	"food-analyzer-go/internal/domain/eventbus"
	domainimage "food-analyzer-go/internal/domain/image"
	"food-analyzer-go/internal/domain/nutrition"
	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/platform/observability"
	"food-analyzer-go/internal/utils"
)

// InvalidContentTypeMessage is returned for uploads that are not images.
const InvalidContentTypeMessage = "File must be an image"

// Upload is one incoming file.
type Upload struct {
	Reader      io.Reader
	ContentType string
	Filename    string
	RequestID   string
}

// Publisher is the part of the event bus the service needs.
type Publisher interface {
	PublishAsync(topic string, args ...interface{}) bool
}

type Options struct {
	Pipeline    *domainimage.Pipeline
	Model       vision.Model
	Interpreter *nutrition.Interpreter
	Events      Publisher
	Logger      *utils.Logger
}

// Service runs one upload through normalization, the model and the
// interpreter. It holds no per-request state.
type Service struct {
	pipeline    *domainimage.Pipeline
	model       vision.Model
	interpreter *nutrition.Interpreter
	events      Publisher
	logger      *utils.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("image pipeline is required")
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("vision model is required")
	}
	if opts.Interpreter == nil {
		opts.Interpreter = nutrition.NewInterpreter(nutrition.FormatLines, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}
	return &Service{
		pipeline:    opts.Pipeline,
		model:       opts.Model,
		interpreter: opts.Interpreter,
		events:      opts.Events,
		logger:      opts.Logger,
	}, nil
}

// Model exposes the shared model handle for status reporting.
func (s *Service) Model() vision.Model { return s.model }

// Pipeline exposes the image pipeline for status reporting.
func (s *Service) Pipeline() *domainimage.Pipeline { return s.pipeline }

// Analyze returns a single nutrition record for the upload. Errors carry one of
// KindInvalidRequest, KindInvalidImage, KindAIResponse or KindTimeout.
func (s *Service) Analyze(ctx context.Context, upload Upload) (result nutrition.Result, err error) {
	ctx, end := observability.StartSpan(ctx, "analysis", "analyze")
	start := time.Now()
	defer func() {
		end(err)
		outcome := "ok"
		if err != nil {
			outcome = string(errors.KindOf(err))
			s.publishFailure(upload.RequestID, err)
		}
		observability.RecordMetric(ctx, "analysis.requests", 1, map[string]string{"outcome": outcome})
	}()

	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nutrition.Result{}, errors.New(errors.KindInvalidRequest, "analysis.analyze", InvalidContentTypeMessage)
	}
	if upload.Reader == nil {
		return nutrition.Result{}, errors.New(errors.KindInvalidRequest, "analysis.analyze", "file is required")
	}

	source := utils.SafeLogValue(upload.Filename, 80)
	out, err := s.pipeline.Process(ctx, domainimage.Input{
		Reader:         upload.Reader,
		DeclaredFormat: domainimage.FormatFromMIME(upload.ContentType),
		Source:         source,
	})
	if err != nil {
		s.logger.WarnTag("Analyze", "image rejected: file=%s request_id=%s err=%v", source, upload.RequestID, err)
		return nutrition.Result{}, err
	}

	jsonMode := s.interpreter.Format() == nutrition.FormatJSON
	reply, err := s.model.Describe(ctx, vision.Request{
		Instruction: nutrition.InstructionFor(s.interpreter.Format()),
		Image:       out.Image.Data,
		MIMEType:    out.Image.MIMEType(),
		JSONOutput:  jsonMode,
	})
	if err != nil {
		s.logger.ErrorTag("Analyze", "model call failed: request_id=%s err=%v", upload.RequestID, err)
		return nutrition.Result{}, errors.Wrap(errors.KindAIResponse, "analysis.describe", "model call failed", err)
	}

	interpretation, err := s.interpreter.Interpret(reply.Text)
	if err != nil {
		s.logger.ErrorTag("Analyze", "unusable model reply: request_id=%s finish_reason=%s", upload.RequestID, reply.FinishReason)
		return nutrition.Result{}, err
	}

	latency := time.Since(start)
	s.logger.InfoTag("Analyze", "analyzed %s as %q in %dms: request_id=%s",
		source, interpretation.Result.FoodItem, latency.Milliseconds(), upload.RequestID)

	if s.events != nil {
		s.events.PublishAsync(eventbus.EventAnalysisCompleted, eventbus.AnalysisCompletedEvent{
			RequestID:    upload.RequestID,
			ImageDigest:  out.Image.Digest,
			ImageWidth:   out.Image.Width,
			ImageHeight:  out.Image.Height,
			SourceFormat: out.Image.SourceFormat,
			Provider:     reply.Provider,
			Model:        reply.Model,
			Result:       interpretation.Result,
			RawReply:     reply.Text,
			Fields:       interpretation.Fields,
			Structured:   interpretation.Structured,
			Latency:      latency,
			CompletedAt:  time.Now().UTC(),
		})
	}

	return interpretation.Result, nil
}

func (s *Service) publishFailure(requestID string, err error) {
	if s.events == nil {
		return
	}
	s.events.PublishAsync(eventbus.EventAnalysisFailed, eventbus.AnalysisFailedEvent{
		RequestID: requestID,
		Kind:      string(errors.KindOf(err)),
		Message:   err.Error(),
		FailedAt:  time.Now().UTC(),
	})
}
