package image

import (
	"bytes"
	"fmt"
	"image"

	"food-analyzer-go/internal/platform/config"
	"food-analyzer-go/internal/utils"
)

// SecurityValidator performs layered checks on an upload before it is fully decoded.
type SecurityValidator struct {
	config *config.ImageConfig
	logger *utils.Logger
}

func NewSecurityValidator(cfg *config.ImageConfig, logger *utils.Logger) *SecurityValidator {
	return &SecurityValidator{
		config: cfg,
		logger: logger,
	}
}

var imageSignatures = map[string][][]byte{
	"jpeg": {{0xFF, 0xD8}},
	"png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"gif":  {{0x47, 0x49, 0x46, 0x38}},
	"webp": {{0x52, 0x49, 0x46, 0x46}},
	"bmp":  {{0x42, 0x4D}},
	"tiff": {{0x49, 0x49, 0x2A, 0x00}, {0x4D, 0x4D, 0x00, 0x2A}},
}

// ValidateBytes validates raw upload bytes. declaredFormat comes from the
// request content type and is only used to flag signature mismatches.
func (v *SecurityValidator) ValidateBytes(raw []byte, declaredFormat string) ValidationResult {
	result := ValidationResult{IsValid: false}

	if len(raw) == 0 {
		result.Error = fmt.Errorf("empty image payload")
		return result
	}

	if v.config.MaxUploadBytes > 0 && int64(len(raw)) > v.config.MaxUploadBytes {
		result.Error = fmt.Errorf(
			"file size exceeds limit: %d bytes (max %d bytes)",
			len(raw),
			v.config.MaxUploadBytes,
		)
		result.SecurityRisk = "file too large"
		return result
	}

	decodeResult := v.validateImageDecoding(raw)
	if declaredFormat != "" && !v.validateFileSignature(raw, declaredFormat) {
		v.logger.WarnTag("Image", "file signature mismatch: declared_format=%s actual_header=%x",
			declaredFormat,
			raw[:min(len(raw), 16)],
		)
	}
	if !decodeResult.IsValid {
		return decodeResult
	}

	decodeResult.FileSize = int64(len(raw))
	return decodeResult
}

func (v *SecurityValidator) isFormatAllowed(format string) bool {
	if v.config == nil || len(v.config.AllowedFormats) == 0 || format == "" {
		return true
	}
	format = canonicalFormat(format)
	for _, allowed := range v.config.AllowedFormats {
		if canonicalFormat(allowed) == format {
			return true
		}
	}
	return false
}

func (v *SecurityValidator) validateFileSignature(raw []byte, format string) bool {
	signatures, ok := imageSignatures[canonicalFormat(format)]
	if !ok {
		return true
	}
	for _, signature := range signatures {
		if bytes.HasPrefix(raw, signature) {
			return true
		}
	}
	return false
}

func (v *SecurityValidator) scanForMaliciousContent(raw []byte) bool {
	suspiciousSignatures := [][]byte{
		{0x4D, 0x5A},             // PE executable
		{0x7F, 0x45, 0x4C, 0x46}, // ELF
		{0x25, 0x50, 0x44, 0x46}, // PDF
		{0x50, 0x4B, 0x03, 0x04}, // zip
		{0x1F, 0x8B, 0x08},       // gzip
	}
	for _, signature := range suspiciousSignatures {
		if bytes.HasPrefix(raw, signature) {
			v.logger.WarnTag("Image", "detected non-image signature: signature_hex=%x", signature)
			return true
		}
	}

	lower := bytes.ToLower(raw)
	if bytes.Contains(lower, []byte("<svg")) {
		return v.checkSVGScripts(lower)
	}
	return false
}

func (v *SecurityValidator) checkSVGScripts(lower []byte) bool {
	suspiciousStrings := []string{
		"<script",
		"javascript:",
		"vbscript:",
		"onload=",
		"onerror=",
		"eval(",
		"document.cookie",
		"window.location",
		"<iframe",
		"<object",
		"<embed",
	}
	for _, suspicious := range suspiciousStrings {
		if bytes.Contains(lower, []byte(suspicious)) {
			v.logger.WarnTag("Image", "detected suspicious SVG content: token=%s", suspicious)
			return true
		}
	}
	return false
}

func (v *SecurityValidator) validateImageDecoding(raw []byte) ValidationResult {
	result := ValidationResult{}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		result.Error = fmt.Errorf("decode image config: %w", err)
		result.SecurityRisk = "corrupted image data"
		return result
	}
	result.Format = canonicalFormat(actualFormat)

	if !v.isFormatAllowed(result.Format) {
		result.Error = fmt.Errorf("unsupported format: %s", result.Format)
		result.SecurityRisk = "unapproved format"
		return result
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		result.Error = fmt.Errorf("invalid dimensions: %dx%d", cfg.Width, cfg.Height)
		result.SecurityRisk = "corrupted image data"
		return result
	}

	totalPixels := int64(cfg.Width) * int64(cfg.Height)
	if v.config.MaxSourcePixels > 0 && totalPixels > v.config.MaxSourcePixels {
		result.Error = fmt.Errorf("pixel count exceeds limit: %d (max %d)", totalPixels, v.config.MaxSourcePixels)
		result.SecurityRisk = "pixel count too high"
		return result
	}

	if v.config.EnableDeepScan && v.scanForMaliciousContent(raw) {
		result.Error = fmt.Errorf("potential malicious content detected")
		result.SecurityRisk = "suspicious content"
		return result
	}

	result.IsValid = true
	result.Width = cfg.Width
	result.Height = cfg.Height

	v.logger.DebugTag("Image", "validation ok: format=%s width=%d height=%d size=%d",
		result.Format,
		result.Width,
		result.Height,
		len(raw),
	)
	return result
}
