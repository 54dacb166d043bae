package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"food-analyzer-go/internal/platform/config"
	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/platform/observability"
	"food-analyzer-go/internal/utils"
)

const defaultMaxUploadBytes = 64 << 20

// Pipeline streams an upload in, validates it and hands it to the Normalizer.
type Pipeline struct {
	validator  *SecurityValidator
	normalizer *Normalizer
	logger     *utils.Logger
	config     *config.ImageConfig

	processed  atomic.Int64
	normalized atomic.Int64
	downscaled atomic.Int64
	failed     atomic.Int64
	incidents  atomic.Int64
	oversized  atomic.Int64
}

// Options configures the pipeline behaviour.
type Options struct {
	Config *config.ImageConfig
	Logger *utils.Logger
}

// Input describes a streaming image payload.
type Input struct {
	Reader         io.Reader
	DeclaredFormat string
	Source         string
}

// Output holds the normalized image and the validation verdict on the original bytes.
type Output struct {
	Image        *NormalizedImage
	Validation   ValidationResult
	OriginalSize int64
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("image config is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}

	return &Pipeline{
		validator:  NewSecurityValidator(opts.Config, opts.Logger),
		normalizer: NewNormalizer(opts.Config.MaxDimension, opts.Config.JPEGQuality),
		logger:     opts.Logger,
		config:     opts.Config,
	}, nil
}

// Process reads the input, validates it and normalizes it. Every failure is
// reported as KindInvalidImage.
func (p *Pipeline) Process(ctx context.Context, input Input) (out *Output, err error) {
	if input.Reader == nil {
		return nil, errors.New(errors.KindInvalidImage, "image.process", "image reader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, end := observability.StartSpan(ctx, "image", "process")
	defer func() { end(err) }()

	p.processed.Add(1)

	maxSize := p.config.MaxUploadBytes
	if maxSize <= 0 {
		maxSize = defaultMaxUploadBytes
	}
	limited := &io.LimitedReader{R: input.Reader, N: maxSize + 1}

	var raw bytes.Buffer
	raw.Grow(32 * 1024)
	if _, err := io.Copy(&raw, limited); err != nil {
		p.failed.Add(1)
		return nil, errors.Wrap(errors.KindInvalidImage, "image.process", "failed to read upload", err)
	}
	if limited.N <= 0 {
		p.oversized.Add(1)
		p.logger.WarnTag("Image", "upload exceeds %d bytes: source=%s", maxSize, input.Source)
		return nil, errors.New(errors.KindInvalidImage, "image.process",
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxSize))
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindInvalidImage, "image.process", "request cancelled", err)
	}

	validation := p.validator.ValidateBytes(raw.Bytes(), input.DeclaredFormat)
	if !validation.IsValid {
		p.failed.Add(1)
		if validation.SecurityRisk == "suspicious content" {
			p.incidents.Add(1)
		}
		cause := validation.Error
		if cause == nil {
			cause = fmt.Errorf("image validation failed")
		}
		return nil, errors.Wrap(errors.KindInvalidImage, "image.validate", cause.Error(), cause)
	}

	normalized, err := p.normalizer.Normalize(raw.Bytes())
	if err != nil {
		p.failed.Add(1)
		return nil, err
	}
	p.normalized.Add(1)
	if normalized.Width != normalized.SourceWidth || normalized.Height != normalized.SourceHeight {
		p.downscaled.Add(1)
	}

	observability.RecordMetric(ctx, "image.upload_bytes", float64(raw.Len()), map[string]string{"format": validation.Format})
	observability.RecordMetric(ctx, "image.jpeg_bytes", float64(len(normalized.Data)), nil)
	p.logger.DebugTag("Image", "normalized %s %dx%d -> %dx%d jpeg=%d bytes",
		normalized.SourceFormat,
		normalized.SourceWidth, normalized.SourceHeight,
		normalized.Width, normalized.Height,
		len(normalized.Data),
	)

	return &Output{
		Image:        normalized,
		Validation:   validation,
		OriginalSize: int64(raw.Len()),
	}, nil
}

// Metrics returns a snapshot of the pipeline counters.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		TotalProcessed:    p.processed.Load(),
		Normalized:        p.normalized.Load(),
		Downscaled:        p.downscaled.Load(),
		FailedValidations: p.failed.Load(),
		SecurityIncidents: p.incidents.Load(),
		OversizedUploads:  p.oversized.Load(),
	}
}

// Describe summarizes the normalizer settings for startup logs.
func (p *Pipeline) Describe() string {
	return p.normalizer.String()
}
